package httpapi

import (
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studio/internal/http/handlers"
	"studio/internal/infra"
	"studio/internal/middleware"
)

// NewRouter assembles the API surface the studio UI talks to.
func NewRouter(app *handlers.App, cfg *infra.Config, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(strings.Split(cfg.AllowedOrigins, ",")))
	r.Use(middleware.I18N("en", lookup))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/prompts", func(r chi.Router) {
		r.Post("/composite", app.CompositePrompt)
		r.Post("/studio", app.StudioPrompt)
		r.Post("/concepts", app.Concepts)
	})

	r.Route("/v1/credentials", func(r chi.Router) {
		r.Get("/status", app.CredentialStatus)
		r.Post("/", app.SetCredential)
	})

	// Generation routes carry the rate limit; prompt building is local and
	// stays unthrottled.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

		r.Post("/v1/analyze", app.Analyze)

		r.Route("/v1/generate", func(r chi.Router) {
			r.Post("/photos", app.Photos)
			r.Post("/composites", app.Composites)
			r.Post("/scripts", app.Scripts)
			r.Post("/video", app.Video)
		})

		r.Route("/v1/storyboard", func(r chi.Router) {
			r.Post("/runs", app.StoryboardStart)
			r.Get("/runs/{run_id}", app.StoryboardStatus)
		})
	})

	return r
}
