// Package router assembles the chi router for the safety API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/storeassist/safety-platform/internal/http/handlers"
	httpmiddleware "github.com/storeassist/safety-platform/internal/http/middleware"
	"github.com/storeassist/safety-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger        *logging.Logger
	SafetyHandler *handlers.SafetyHandler

	// AccessorAuthSecret protects report reads; AdminAuthSecret protects
	// operational endpoints. An empty secret disables the route group.
	AccessorAuthSecret string
	AdminAuthSecret    string

	MetricsHandler http.Handler
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.SafetyHandler.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/v1", func(v1 chi.Router) {
		// Device sessions are pre-authenticated at the gateway; the
		// classify endpoint itself carries no secrets worth a token.
		v1.Post("/messages/classify", cfg.SafetyHandler.Classify)

		v1.Route("/reports", func(reports chi.Router) {
			reports.With(httpmiddleware.AccessorJWT(cfg.AccessorAuthSecret)).
				Get("/{reportID}", cfg.SafetyHandler.GetReport)
			reports.With(httpmiddleware.AdminJWT(cfg.AdminAuthSecret)).
				Post("/purge", cfg.SafetyHandler.PurgeExpired)
		})
	})

	return r
}
