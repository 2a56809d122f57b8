package dataset

import (
	"fmt"
	"strings"

	"github.com/maastricht-university/asr-eval/evaluation"
)

// Column names of the metadata and prediction tables.
const (
	ColumnText              = "text"
	ColumnSpeakerID         = "speaker_id"
	ColumnIsCommon          = "is_common"
	ColumnFileName          = "file_name"
	ColumnProcessedFileName = "processed_file_name"
	ColumnSampleRate        = "sample_rate"
)

// PredictionColumn is the column a backend writes its transcripts to.
func PredictionColumn(backend string) string {
	return backend + "_pred"
}

// Require returns a *evaluation.SchemaError for the first column of cols
// missing from t.
func Require(t *Table, producer string, cols ...string) error {
	for _, c := range cols {
		if !t.HasColumn(c) {
			return &evaluation.SchemaError{Column: c, Producer: producer}
		}
	}
	return nil
}

// Records validates the table header once and converts every row into an
// UtteranceRecord reading predictions from predColumn. producer names the
// stage expected to have written predColumn.
func Records(t *Table, predColumn, producer string) ([]evaluation.UtteranceRecord, error) {
	if err := Require(t, "metadata", ColumnText, ColumnSpeakerID, ColumnIsCommon); err != nil {
		return nil, err
	}
	if err := Require(t, producer, predColumn); err != nil {
		return nil, err
	}

	out := make([]evaluation.UtteranceRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		isCommon, err := parseFlag(row[ColumnIsCommon])
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i+1, ColumnIsCommon, err)
		}
		out = append(out, evaluation.UtteranceRecord{
			Row:           i + 1,
			ReferenceText: row[ColumnText],
			PredictedText: row[predColumn],
			SpeakerID:     row[ColumnSpeakerID],
			IsCommon:      isCommon,
		})
	}
	return out, nil
}

func parseFlag(v string) (bool, error) {
	switch strings.TrimSpace(v) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("expected 0 or 1, got %q", v)
}
