package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"curlwise-server-go/src/analyze"
	"curlwise-server-go/src/core/utils"

	"github.com/schollz/progressbar/v3"
)

// BatchRecord is one line of batch output.
type BatchRecord struct {
	Path     string `json:"path"`
	Analysis string `json:"curl_analysis,omitempty"`
	Routine  string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RunBatch analyzes every image below dir one after the other, writing a JSON
// line per image to out and a progress bar to progress. It returns the number
// of images that failed. Stops early when ctx is canceled.
func RunBatch(ctx context.Context, analyzer analyze.Analyzer, dir string, out, progress io.Writer) (int, error) {
	files, err := utils.FindImageFiles(dir)
	if err != nil {
		return 0, fmt.Errorf("listing images: %w", err)
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no images found in %s", dir)
	}

	bar := progressbar.NewOptions(
		len(files),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Analyzing images"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(progress) }),
	)

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	var failed int
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		record := analyzeFile(ctx, analyzer, path)
		if record.Error != "" {
			failed++
		}
		if err := enc.Encode(record); err != nil {
			return failed, err
		}
		_ = bar.Add(1)
	}

	return failed, nil
}

func analyzeFile(ctx context.Context, analyzer analyze.Analyzer, path string) BatchRecord {
	record := BatchRecord{Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		record.Error = err.Error()
		return record
	}

	result, err := analyzer.Run(ctx, raw)
	if result != nil {
		record.Analysis = result.Analysis
		record.Routine = result.Routine
	}
	if err != nil {
		record.Error = err.Error()
	}
	return record
}
