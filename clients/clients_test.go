package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maastricht-university/asr-eval/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAudio(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("RIFF....WAVE"), 0o644))
	return p
}

func TestPreprocess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/preprocess" {
			http.NotFound(w, r)
			return
		}
		var in PreprocessReq
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch in.FileName {
		case "gone.m4a":
			_ = json.NewEncoder(w).Encode(PreprocessResp{Status: "unavailable", Reason: "empty after trim"})
		case "stale.m4a":
			_ = json.NewEncoder(w).Encode(PreprocessResp{ProcessedFileName: "stale.wav", Status: "error", Reason: "resampler failed"})
		case "boom.m4a":
			http.Error(w, "decoder crashed", http.StatusInternalServerError)
		default:
			assert.Equal(t, 16000, in.SampleRate)
			assert.Equal(t, 0.95, in.Peak)
			_ = json.NewEncoder(w).Encode(PreprocessResp{ProcessedFileName: "a.wav", SampleRate: in.SampleRate, Status: "ok"})
		}
	}))
	defer srv.Close()

	h := NewHTTP(5 * time.Second)
	ctx := context.Background()

	out, err := h.Preprocess(ctx, srv.URL, PreprocessReq{FileName: "a.m4a", SampleRate: 16000, TopDB: 30, Peak: 0.95})
	require.NoError(t, err)
	assert.Equal(t, "a.wav", out.ProcessedFileName)

	_, err = h.Preprocess(ctx, srv.URL, PreprocessReq{FileName: "gone.m4a"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "empty after trim")

	_, err = h.Preprocess(ctx, srv.URL, PreprocessReq{FileName: "boom.m4a"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "decoder crashed")

	_, err = h.Preprocess(ctx, srv.URL, PreprocessReq{FileName: "stale.m4a"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), `status "error": resampler failed`)
}

func TestMissingRouteIsNotUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h := NewHTTP(5 * time.Second)
	ctx := context.Background()
	audio := writeAudio(t, "a.wav")

	tests := []struct {
		name string
		call func() error
	}{
		{"preprocess", func() error {
			_, err := h.Preprocess(ctx, srv.URL, PreprocessReq{FileName: "a.m4a"})
			return err
		}},
		{"asr", func() error {
			_, err := h.ASR(ctx, srv.URL, audio, ASROpts{})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, http.StatusNotFound, se.Code)
			assert.NotErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestASR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			http.NotFound(w, r)
			return
		}
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "RIFF....WAVE", string(body))
		assert.Equal(t, "turkish", r.FormValue("language"))

		switch hdr.Filename {
		case "segments.wav":
			_ = json.NewEncoder(w).Encode(ASRResp{Segments: []TransSeg{{Text: " merhaba "}, {Text: "dünya"}}})
			return
		case "silent.wav":
			_ = json.NewEncoder(w).Encode(ASRResp{Status: "unavailable", Reason: "no speech"})
			return
		}
		_ = json.NewEncoder(w).Encode(ASRResp{Text: " bir iki üç "})
	}))
	defer srv.Close()

	h := NewHTTP(5 * time.Second)
	opts := ASROpts{Model: "openai/whisper-small", Language: "turkish"}

	out, err := h.ASR(context.Background(), srv.URL, writeAudio(t, "a.wav"), opts)
	require.NoError(t, err)
	assert.Equal(t, "bir iki üç", out.Transcript())

	out, err = h.ASR(context.Background(), srv.URL, writeAudio(t, "segments.wav"), opts)
	require.NoError(t, err)
	assert.Equal(t, "merhaba dünya", out.Transcript())

	_, err = h.ASR(context.Background(), srv.URL, filepath.Join(t.TempDir(), "missing.wav"), opts)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = h.ASR(context.Background(), srv.URL, writeAudio(t, "silent.wav"), opts)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "no speech")
}

func TestBackendLifecycle(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/load":
			var in loadReq
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "m3hrdadfi/wav2vec2-large-xlsr-turkish", in.Model)
			assert.Equal(t, "mps", in.Device)
			w.WriteHeader(http.StatusOK)
		case "/transcribe":
			_ = json.NewEncoder(w).Encode(ASRResp{Text: "merhaba"})
		case "/unload":
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	b := NewBackend("wav2vec2", config.Backend{
		URL:    srv.URL,
		Model:  "m3hrdadfi/wav2vec2-large-xlsr-turkish",
		Device: "mps",
	}, NewHTTP(5*time.Second))
	ctx := context.Background()
	audio := writeAudio(t, "a.wav")

	_, err := b.Transcribe(ctx, audio)
	require.Error(t, err, "transcribe before init")

	require.NoError(t, b.Init(ctx))
	text, err := b.Transcribe(ctx, audio)
	require.NoError(t, err)
	assert.Equal(t, "merhaba", text)

	require.NoError(t, b.Close(ctx))
	require.NoError(t, b.Close(ctx), "second close is a no-op")

	assert.Equal(t, []string{"/load", "/transcribe", "/unload"}, calls)
}

func TestBackendCloseWithoutUnloadRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/load" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	b := NewBackend("whisper", config.Backend{URL: srv.URL}, NewHTTP(5*time.Second))
	ctx := context.Background()
	require.NoError(t, b.Init(ctx))
	assert.NoError(t, b.Close(ctx))
}

func TestBackendInitWithoutLoadRoute(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	b := NewBackend("whisper", config.Backend{URL: srv.URL}, NewHTTP(5*time.Second))
	err := b.Init(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}
