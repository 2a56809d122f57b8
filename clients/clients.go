package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable is returned when a collaborator reports that it cannot
// produce output for an input, e.g. the audio file is missing or empty
// after trimming. Services signal it with a 200 response carrying
// status "unavailable".
var ErrUnavailable = errors.New("unavailable")

// StatusError is a non-200 reply from a collaborator. It is never
// ErrUnavailable: a missing route or a wrong URL is a configuration error.
type StatusError struct {
	Name   string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Name, e.Status, e.Body)
}

const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
)

// checkStatus maps the status field of a service response. An empty status
// counts as success.
func checkStatus(name, input, status, reason string) error {
	switch status {
	case "", statusOK:
		return nil
	case statusUnavailable:
		return fmt.Errorf("%s %s: %w: %s", name, input, ErrUnavailable, reason)
	}
	return fmt.Errorf("%s %s: status %q: %s", name, input, status, reason)
}

type HTTP struct{ c *http.Client }

func NewHTTP(timeout time.Duration) *HTTP { return &HTTP{c: &http.Client{Timeout: timeout}} }

// postJSON sends in as JSON to url and decodes the 200 response into out.
// Any other status is a *StatusError.
func (h *HTTP) postJSON(ctx context.Context, name, url string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s encode: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decode(name, resp, out)
}

func decode(name string, resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Name: name, Code: resp.StatusCode, Status: resp.Status, Body: string(bytes.TrimSpace(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s decode: %w", name, err)
	}
	return nil
}
