package analyze

import (
	"context"
	"errors"
	"io"
	"net/http"

	"curlwise-server-go/src/core/curl"
	"curlwise-server-go/src/core/providers/llm"
	"curlwise-server-go/src/core/utils"

	"github.com/gin-gonic/gin"
)

type DefaultAnalyzeService struct {
	logger   *utils.Logger
	analyzer Analyzer
}

// NewDefaultAnalyzeService creates the service around analyzer.
func NewDefaultAnalyzeService(analyzer Analyzer, logger *utils.Logger) *DefaultAnalyzeService {
	return &DefaultAnalyzeService{
		logger:   logger.WithTag("analyze"),
		analyzer: analyzer,
	}
}

// Start registers POST /analyze on apiGroup.
func (s *DefaultAnalyzeService) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error {
	apiGroup.POST("/analyze", s.handlePost)
	s.logger.Debug("analyze routes registered")
	return nil
}

func (s *DefaultAnalyzeService) handlePost(c *gin.Context) {
	ctx := c.Request.Context()
	logger := s.logger.ForContext(ctx)

	raw, err := s.readImage(c)
	if err != nil {
		if errors.Is(err, errNoImage) {
			logger.Debug("request without image", err)
			s.respondError(c, http.StatusBadRequest, ErrorResponse{Error: msgNoImage})
			return
		}
		logger.Error("reading upload failed", err)
		s.respondError(c, http.StatusInternalServerError, ErrorResponse{Error: msgReadImage})
		return
	}

	result, err := s.analyzer.Run(ctx, raw)
	if err != nil {
		status, body := errorResponse(err, result)
		logger.Error("analysis failed", map[string]interface{}{
			"status":      status,
			"image_bytes": len(raw),
			"partial":     body.Analysis != "",
		}, err)
		_ = c.Error(err)
		s.respondError(c, status, body)
		return
	}

	logger.Info("analysis done", map[string]interface{}{
		"image_bytes":    len(raw),
		"analysis_chars": len(result.Analysis),
		"routine_chars":  len(result.Routine),
	})
	c.JSON(http.StatusOK, result)
}

var errNoImage = errors.New("no image field")

// readImage returns the bytes of the image field. Any body that is not a
// multipart form with that field counts as no image.
func (s *DefaultAnalyzeService) readImage(c *gin.Context) ([]byte, error) {
	header, err := c.FormFile(ImageField)
	if err != nil {
		return nil, errors.Join(errNoImage, err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func (s *DefaultAnalyzeService) respondError(c *gin.Context, statusCode int, body ErrorResponse) {
	c.JSON(statusCode, body)
}

// errorResponse maps a pipeline error to a status and body. Upstream error
// text is never returned to the client.
func errorResponse(err error, result *curl.Result) (int, ErrorResponse) {
	ue := llm.Classify("", err)
	body := ErrorResponse{Error: stagePrefix(err) + kindMessage(ue.Kind)}

	var stageErr *curl.StageError
	if errors.As(err, &stageErr) && stageErr.Stage == curl.StageRoutine && result != nil {
		body.Analysis = result.Analysis
	}
	return StatusForKind(ue.Kind), body
}

// StatusForKind maps an upstream error kind to the response status.
func StatusForKind(kind llm.ErrorKind) int {
	switch kind {
	case llm.KindQuota:
		return http.StatusServiceUnavailable
	case llm.KindNetwork:
		return http.StatusGatewayTimeout
	case llm.KindAuth, llm.KindMalformed, llm.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func kindMessage(kind llm.ErrorKind) string {
	switch kind {
	case llm.KindAuth:
		return "upstream authentication failed"
	case llm.KindQuota:
		return "upstream quota exceeded, try again later"
	case llm.KindMalformed:
		return "upstream returned an invalid response"
	case llm.KindNetwork:
		return "upstream did not respond in time"
	case llm.KindUpstream:
		return "upstream request failed"
	default:
		return "internal error"
	}
}

func stagePrefix(err error) string {
	var stageErr *curl.StageError
	if !errors.As(err, &stageErr) {
		return ""
	}
	switch stageErr.Stage {
	case curl.StageVision:
		return "Curl analysis failed: "
	case curl.StageRoutine:
		return "Routine generation failed: "
	}
	return ""
}
