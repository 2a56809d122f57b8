package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

type TransSeg struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
type ASRResp struct {
	Text     string     `json:"text"`
	Segments []TransSeg `json:"segments"`
	Language string     `json:"language"`
	Status   string     `json:"status,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

// Transcript returns the full text, joining segments when the service
// only returned those.
func (r *ASRResp) Transcript() string {
	if r.Text != "" || len(r.Segments) == 0 {
		return strings.TrimSpace(r.Text)
	}
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

type ASROpts struct {
	Model    string
	Language string
}

// ASR uploads the recording at wavPath to the backend's /transcribe
// endpoint. A recording that does not exist, or a response with status
// "unavailable", maps to ErrUnavailable.
func (h *HTTP) ASR(ctx context.Context, url, wavPath string, opts ASROpts) (*ASRResp, error) {
	body, contentType, err := audioForm(wavPath, map[string]string{
		"model":    opts.Model,
		"language": opts.Language,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/transcribe", body)
	if err != nil {
		return nil, fmt.Errorf("asr: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asr %s: %w", url, err)
	}
	defer resp.Body.Close()

	var out ASRResp
	if err := decode("asr", resp, &out); err != nil {
		return nil, err
	}
	if err := checkStatus("asr", filepath.Base(wavPath), out.Status, out.Reason); err != nil {
		return nil, err
	}
	return &out, nil
}

// audioForm builds a multipart body holding the audio file and every
// non-empty field.
func audioForm(wavPath string, fields map[string]string) (io.Reader, string, error) {
	audio, err := os.ReadFile(wavPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, "", fmt.Errorf("asr %s: %w", wavPath, ErrUnavailable)
	case err != nil:
		return nil, "", fmt.Errorf("asr: read %s: %w", wavPath, err)
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if v := fields[k]; v != "" {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &b, w.FormDataContentType(), nil
}
