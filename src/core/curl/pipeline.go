package curl

import (
	"context"
	"fmt"
	"time"

	"curlwise-server-go/src/configs"
	"curlwise-server-go/src/core/image"
	"curlwise-server-go/src/core/providers/llm"
	"curlwise-server-go/src/core/types"
	"curlwise-server-go/src/core/utils"
)

const (
	StageVision  = "vision"
	StageRoutine = "routine"
)

// StageError records which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one analysis. It serializes to the response body
// of POST /analyze.
type Result struct {
	Analysis string `json:"curl_analysis"`
	Routine  string `json:"result"`
}

// Budgets are the max_tokens limits of the two calls.
type Budgets struct {
	Vision  int
	Routine int
}

// Pipeline runs the vision call followed by the routine call. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	vision  llm.Provider
	routine llm.Provider
	budgets Budgets
	logger  *utils.Logger
}

// NewPipeline creates a pipeline. Budgets that are not positive fall back to
// 500 for the vision call and 1000 for the routine call.
func NewPipeline(vision, routine llm.Provider, budgets Budgets, logger *utils.Logger) *Pipeline {
	if budgets.Vision <= 0 {
		budgets.Vision = configs.DefaultVisionTokens
	}
	if budgets.Routine <= 0 {
		budgets.Routine = configs.DefaultRoutineTokens
	}
	return &Pipeline{
		vision:  vision,
		routine: routine,
		budgets: budgets,
		logger:  logger.WithTag("pipeline"),
	}
}

// Budgets returns the effective token limits.
func (p *Pipeline) Budgets() Budgets {
	return p.budgets
}

// AnalyzeTraits asks the vision model for the curl traits in img.
func (p *Pipeline) AnalyzeTraits(ctx context.Context, img image.ImageData) (string, error) {
	logger := p.logger.ForContext(ctx)
	start := time.Now()

	analysis, err := p.vision.Complete(ctx, []types.Message{types.UserImageMessage(TraitPrompt, img)}, p.budgets.Vision)
	if err != nil {
		return "", &StageError{Stage: StageVision, Err: err}
	}

	logger.Debug("vision call done", map[string]interface{}{
		"format":      img.Format,
		"image_bytes": img.Size,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return analysis, nil
}

// GenerateRoutine asks the routine model for a care routine based on analysis.
func (p *Pipeline) GenerateRoutine(ctx context.Context, analysis string) (string, error) {
	logger := p.logger.ForContext(ctx)
	start := time.Now()

	routine, err := p.routine.Complete(ctx, []types.Message{types.UserMessage(RoutinePrompt(analysis))}, p.budgets.Routine)
	if err != nil {
		return "", &StageError{Stage: StageRoutine, Err: err}
	}

	logger.Debug("routine call done", map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return routine, nil
}

// Run encodes raw and runs both stages. The routine call is only made after
// the vision call succeeded. When the routine call fails the returned Result
// still holds the analysis.
func (p *Pipeline) Run(ctx context.Context, raw []byte) (*Result, error) {
	img := image.Encode(raw)

	analysis, err := p.AnalyzeTraits(ctx, img)
	if err != nil {
		return nil, err
	}

	result := &Result{Analysis: analysis}
	routine, err := p.GenerateRoutine(ctx, analysis)
	if err != nil {
		return result, err
	}
	result.Routine = routine
	return result, nil
}
