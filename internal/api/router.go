// Package api wires the tripwise HTTP API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tripwise/tripwise/internal/api/handler"
	"github.com/tripwise/tripwise/internal/api/middleware"
	"github.com/tripwise/tripwise/internal/api/response"
	"github.com/tripwise/tripwise/internal/featureflags"
	"github.com/tripwise/tripwise/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	Service  handler.ItineraryService
	Registry *resilience.Registry
	Checks   []handler.Check

	// Flags, when set, is listed at /v1/ops/flags.
	Flags *featureflags.Service

	// WeatherCache, when set, is reported by /v1/ops/status.
	WeatherCache handler.WeatherCache

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	// OptimizeRateLimit is the per-IP requests per minute on search endpoints.
	OptimizeRateLimit int
}

// NewRouter creates the chi router with every API route.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.Method+" "+r.URL.Path)
	})

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.Checks...)
	if cfg.WeatherCache != nil {
		opsHandler.WithWeatherCache(cfg.WeatherCache)
	}
	itineraryHandler := handler.NewItineraryHandler(cfg.Service, cfg.Logger)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
			if cfg.Flags != nil {
				r.Get("/flags", handler.NewFeatureFlagsHandler(cfg.Flags).ListFeatureFlags)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireJSON)
			r.Use(middleware.RateLimitByIP(middleware.OptimizeRateLimit(cfg.OptimizeRateLimit)))
			r.Post("/itineraries:optimize", itineraryHandler.Optimize)
			r.Post("/itineraries:reoptimize", itineraryHandler.Reoptimize)
			r.Post("/recommendations", itineraryHandler.Recommend)
		})

		r.With(middleware.RateLimitByIP(middleware.StandardRateLimit)).
			Get("/places", itineraryHandler.ListPlaces)
	})

	return r
}
