package analyze

import (
	"context"

	"curlwise-server-go/src/core/curl"

	"github.com/gin-gonic/gin"
)

// AnalyzeService registers the analysis routes.
type AnalyzeService interface {
	Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error
}

// Analyzer turns one uploaded image into an analysis and a routine.
// *curl.Pipeline implements it.
type Analyzer interface {
	Run(ctx context.Context, raw []byte) (*curl.Result, error)
}
