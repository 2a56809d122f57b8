package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/maastricht-university/asr-eval/config"
)

type loadReq struct {
	Model    string `json:"model"`
	Device   string `json:"device,omitempty"`
	Language string `json:"language,omitempty"`
}

// Backend is one ASR inference service. The model is loaded once by Init,
// used for any number of Transcribe calls and released by Close.
type Backend struct {
	Name string
	cfg  config.Backend
	http *HTTP
	live bool
}

func NewBackend(name string, cfg config.Backend, h *HTTP) *Backend {
	return &Backend{Name: name, cfg: cfg, http: h}
}

func (b *Backend) Init(ctx context.Context) error {
	req := loadReq{Model: b.cfg.Model, Device: b.cfg.Device, Language: b.cfg.Language}
	if err := b.http.postJSON(ctx, b.Name+" load", b.cfg.URL+"/load", req, nil); err != nil {
		return err
	}
	b.live = true
	return nil
}

func (b *Backend) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if !b.live {
		return "", fmt.Errorf("%s: backend not initialized", b.Name)
	}
	resp, err := b.http.ASR(ctx, b.cfg.URL, audioPath, ASROpts{Model: b.cfg.Model, Language: b.cfg.Language})
	if err != nil {
		return "", err
	}
	return resp.Transcript(), nil
}

func (b *Backend) Close(ctx context.Context) error {
	if !b.live {
		return nil
	}
	b.live = false
	err := b.http.postJSON(ctx, b.Name+" unload", b.cfg.URL+"/unload", loadReq{Model: b.cfg.Model}, nil)
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusGone) {
		// model already dropped, or the service has no unload route
		return nil
	}
	return err
}
