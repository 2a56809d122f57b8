package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maastricht-university/asr-eval/dataset"
	"github.com/maastricht-university/asr-eval/evaluation"
	"github.com/sirupsen/logrus"
)

// Dataset layout below paths.data.
const (
	rawAudioDir       = "raw_audio"
	processedAudioDir = "processed_audio"
	metadataDir       = "metadata"
)

func (p *Pipeline) rawAudioPath(name string) string {
	return filepath.Join(p.cfg.Paths.Data, rawAudioDir, name)
}

func (p *Pipeline) processedAudioPath(name string) string {
	return filepath.Join(p.cfg.Paths.Data, processedAudioDir, name)
}

func (p *Pipeline) metadataPath() string {
	return filepath.Join(p.cfg.Paths.Data, metadataDir, "metadata.csv")
}

func (p *Pipeline) processedMetadataPath() string {
	return filepath.Join(p.cfg.Paths.Data, metadataDir, "metadata_processed.csv")
}

// PredictionsPath is where Transcribe writes the predictions of backend.
func (p *Pipeline) PredictionsPath(backend string) string {
	return filepath.Join(p.cfg.Paths.Data, metadataDir, backend+"_predictions.csv")
}

// checkAudio returns an *evaluation.UnavailableInputError when path does
// not exist or is empty.
func checkAudio(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &evaluation.UnavailableInputError{Path: path, Reason: "file not found"}
	case err != nil:
		return fmt.Errorf("stat %s: %w", path, err)
	case info.Size() == 0:
		return &evaluation.UnavailableInputError{Path: path, Reason: "file is empty"}
	}
	return nil
}

// skip logs an unavailable input and reports whether err was one.
func (p *Pipeline) skip(stage string, row int, err error) bool {
	var unavailable *evaluation.UnavailableInputError
	if !errors.As(err, &unavailable) {
		return false
	}
	p.log.WithFields(logrus.Fields{
		"stage": stage,
		"row":   row,
		"file":  unavailable.Path,
	}).Warn(unavailable.Reason)
	return true
}

// extend copies the header of in and appends cols.
func extend(in *dataset.Table, cols ...string) *dataset.Table {
	out := &dataset.Table{Header: append([]string(nil), in.Header...)}
	for _, c := range cols {
		out.AddColumn(c)
	}
	return out
}

func copyRow(r dataset.Row) dataset.Row {
	out := make(dataset.Row, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}
