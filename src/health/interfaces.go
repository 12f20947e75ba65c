package health

import (
	"context"

	"github.com/gin-gonic/gin"
)

// HealthService registers the liveness route.
type HealthService interface {
	Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error
}
