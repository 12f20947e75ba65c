package health

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// LiveMessage is the body of GET /.
const LiveMessage = "Curlwise backend is live!"

type DefaultHealthService struct {
	Message string
}

// NewDefaultHealthService creates the service with the default message.
func NewDefaultHealthService() *DefaultHealthService {
	return &DefaultHealthService{Message: LiveMessage}
}

// Start registers GET and HEAD on / of the engine root.
func (s *DefaultHealthService) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error {
	engine.GET("/", s.handleGet)
	engine.HEAD("/", s.handleGet)
	return nil
}

func (s *DefaultHealthService) handleGet(c *gin.Context) {
	c.String(http.StatusOK, s.Message)
}
