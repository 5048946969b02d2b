package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photoanimator/internal/http/handlers"
	"photoanimator/internal/middleware"
)

func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	cfg := app.Config
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.CORSOrigins),
		middleware.I18N(cfg.DefaultLocale, lookup),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Handle("/metrics", promhttp.Handler())
		r.Get("/metrics/dashboard", app.Dashboard)
		r.Get("/catalog", app.ListCatalog)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

			r.Post("/sessions", app.CreateSession)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", app.GetSession)
				r.Delete("/", app.DeleteSession)
				r.Put("/image", app.PutImage)
				r.Delete("/image", app.DeleteImage)
				r.Patch("/settings", app.PatchSettings)
				r.Post("/generate", app.Generate)
				r.Get("/download", app.Download)
				r.Post("/export", app.Export)
			})
		})
	})

	return r
}
