package httpapi

import (
	"net/http"
	"time"

	"videogen/internal/http/handlers"
	"videogen/internal/infra"
	mw "videogen/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	Logger          *infra.Logger
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		mw.Logger(*infra.OrDiscard(opts.Logger)),
		mw.CORS(),
	)

	r.Get("/", app.Root)
	r.Get("/healthz", app.Health)
	r.Get("/themes", app.Themes)

	// Generation calls are expensive, so only they are rate limited.
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Post("/upload-song", app.UploadSong)
		r.Post("/generate-tiktok", app.GenerateTikTok)
	})

	return r
}
