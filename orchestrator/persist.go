package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/maastricht-university/asr-eval/evaluation"
)

type PersistBundle struct {
	RunID       string                      `json:"run_id"`
	Backend     string                      `json:"backend"`
	Source      string                      `json:"source"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Report      evaluation.Report           `json:"report"`
	Scores      []evaluation.UtteranceScore `json:"scores"`
}

func newRunID(now time.Time) string {
	return "run_" + now.Format("20060102-150405") + "_" + uuid.New().String()[:8]
}

func mkRunDir(outputsRoot, runID string) (string, error) {
	dir := filepath.Join(outputsRoot, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func persist(outputsRoot string, bundle PersistBundle) (string, error) {
	dir, err := mkRunDir(outputsRoot, bundle.RunID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "evaluation.json")
	if err := writeJSON(path, bundle); err != nil {
		return "", err
	}
	return path, nil
}
