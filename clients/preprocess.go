package clients

import (
	"context"
	"fmt"
)

// --- Preprocessing (/preprocess) ---
type PreprocessReq struct {
	FileName   string  `json:"file_name"`
	SampleRate int     `json:"sample_rate"`
	TopDB      float64 `json:"top_db"`
	Peak       float64 `json:"peak"`
}

type PreprocessResp struct {
	ProcessedFileName string `json:"processed_file_name"`
	SampleRate        int    `json:"sample_rate"`
	Status            string `json:"status"`
	Reason            string `json:"reason,omitempty"`
}

// Preprocess asks the preprocessing service to resample, trim and peak
// normalize one raw recording. A response with status "unavailable" is
// reported as ErrUnavailable; any status other than "ok" is an error.
func (h *HTTP) Preprocess(ctx context.Context, url string, in PreprocessReq) (*PreprocessResp, error) {
	var out PreprocessResp
	if err := h.postJSON(ctx, "preprocess", url+"/preprocess", in, &out); err != nil {
		return nil, err
	}
	if err := checkStatus("preprocess", in.FileName, out.Status, out.Reason); err != nil {
		return nil, err
	}
	if out.ProcessedFileName == "" {
		return nil, fmt.Errorf("preprocess %s: empty processed_file_name", in.FileName)
	}
	return &out, nil
}
