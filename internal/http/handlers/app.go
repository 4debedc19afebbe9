// Package handlers implements the HTTP endpoints of the video generator.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/middleware"
	"videogen/internal/pipeline"
)

// DefaultMaxUploadBytes applies when App.MaxUploadBytes is unset.
const DefaultMaxUploadBytes int64 = 50 << 20

// MusicVideoRunner executes the audio-driven flow.
type MusicVideoRunner interface {
	Generate(ctx context.Context, in pipeline.MusicVideoInput) (*pipeline.MusicVideoResult, error)
}

// TikTokRunner executes the topic-driven flow.
type TikTokRunner interface {
	Generate(ctx context.Context, job domain.TikTokJob) (*pipeline.TikTokResult, error)
}

type App struct {
	MusicVideo     MusicVideoRunner
	TikTok         TikTokRunner
	Logger         *infra.Logger
	MaxUploadBytes int64
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fail is the single place where flow errors become HTTP responses. Request
// validation maps to 422, oversized bodies to 413 and everything else to 500.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		code = http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrValidation):
		code = http.StatusUnprocessableEntity
	}

	logger := infra.OrDiscard(a.Logger)
	evt := logger.Warn()
	if code >= http.StatusInternalServerError {
		evt = logger.Error()
	}
	evt.Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("path", r.URL.Path).
		Int("status", code).
		Msg("request failed")

	a.json(w, code, errorResponse{Detail: err.Error()})
}

func (a *App) maxUploadBytes() int64 {
	if a.MaxUploadBytes > 0 {
		return a.MaxUploadBytes
	}
	return DefaultMaxUploadBytes
}
