package orchestrator

import (
	"context"

	"github.com/maastricht-university/asr-eval/evaluation"
)

// Transcriber is an ASR backend with an explicit lifecycle.
type Transcriber interface {
	Init(ctx context.Context) error
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Close(ctx context.Context) error
}

// StageStats summarizes one table-producing stage.
type StageStats struct {
	Stage   string
	Total   int
	Written int
	Skipped int
	Output  string
}

// Report formats accepted by Evaluate.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

type EvaluateOptions struct {
	// Input overrides the predictions file of the backend.
	Input  string
	Format string
	// Dimensions and ExpectedSpeakers override the configured values when set.
	Dimensions       []evaluation.Dimension
	ExpectedSpeakers []string
}

// Outcome is everything an evaluation produced.
type Outcome struct {
	RunID      string
	Source     string
	Report     evaluation.Report
	Result     *evaluation.Result
	BundlePath string
}
