// Package main provides the entrypoint for the tripwise API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tripwise/tripwise/internal/api"
	"github.com/tripwise/tripwise/internal/api/handler"
	"github.com/tripwise/tripwise/internal/api/middleware"
	"github.com/tripwise/tripwise/internal/config"
	"github.com/tripwise/tripwise/internal/itinerary"
	"github.com/tripwise/tripwise/internal/itinerary/remote"
	"github.com/tripwise/tripwise/internal/provider/resilience"
	"github.com/tripwise/tripwise/internal/telemetry"
	"github.com/tripwise/tripwise/internal/weather"
	"github.com/tripwise/tripwise/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "tripwise-api"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Msg("starting tripwise API")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server stopped")
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTELEnabled,
		SampleRatio:    cfg.OTELSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.OTELEnabled {
		log.Info().Str("otlp_endpoint", cfg.OTLPEndpoint).Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		return err
	}
	itineraryMetrics, err := telemetry.NewItineraryMetrics()
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	opts := itinerary.DefaultOptions()
	opts.Trials = cfg.Trials
	if cfg.WeightsFile != "" {
		if opts.Weights, err = itinerary.LoadWeights(cfg.WeightsFile); err != nil {
			return err
		}
		log.Info().Str("path", cfg.WeightsFile).Msg("scoring weights loaded")
	}

	registry := resilience.NewRegistry()
	svcCfg := itinerary.ServiceConfig{
		RemoteTimeout: cfg.RemoteTimeout,
		Catalog:       store.places,
		Flags:         store.flags,
		Options:       opts,
		Metrics:       itineraryMetrics,
		Logger:        log.With().Str("component", "itinerary").Logger(),
	}
	if cfg.RemoteURL != "" {
		svcCfg.Remote = remote.NewClient(remote.ClientConfig{
			BaseURL:  cfg.RemoteURL,
			Timeout:  cfg.RemoteTimeout,
			Registry: registry,
			Logger:   log.With().Str("component", "remote").Logger(),
		})
		log.Info().
			Str("url", cfg.RemoteURL).
			Dur("timeout", cfg.RemoteTimeout).
			Msg("remote itinerary service enabled")
	}
	caches := []namedCache{{name: "featureflags", cache: store.flags}}
	routerCfg := api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		Metrics:           httpMetrics,
		Registry:          registry,
		Checks:            append([]handler.Check{{Name: "catalog", Ping: store.ping}}, store.checks...),
		Flags:             store.flags,
		RequireTLS:        cfg.RequireTLS,
		OptimizeRateLimit: cfg.RateLimit,
	}
	if cfg.OpenWeatherAPIKey != "" {
		weatherSvc := newWeatherService(cfg, registry, log)
		svcCfg.Weather = weatherSvc
		routerCfg.WeatherCache = weatherSvc
		caches = append(caches, namedCache{name: "weather", cache: weatherSvc})
		log.Info().Dur("cache_ttl", cfg.WeatherCacheTTL).Msg("live weather enabled")
	}
	routerCfg.Service = itinerary.NewService(svcCfg)

	router := api.NewRouter(routerCfg)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)

wait:
	for {
		select {
		case err := <-serverErr:
			return err
		case <-reload:
			invalidateCaches(log, caches...)
		case sig := <-quit:
			log.Info().Str("signal", sig.String()).Msg("shutting down server")
			break wait
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newWeatherService(cfg config.Config, registry *resilience.Registry, log zerolog.Logger) *weather.Service {
	httpCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
	httpCfg.Timeout = 3 * time.Second
	httpCfg.MaxRetries = 1
	httpCfg.Registry = registry

	logger := log.With().Str("component", "weather").Logger()
	return weather.NewService(weather.ServiceConfig{
		Provider: openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     cfg.OpenWeatherAPIKey,
			HTTPClient: resilience.NewClient(httpCfg),
			Logger:     logger,
		}),
		Logger:   logger,
		CacheTTL: cfg.WeatherCacheTTL,
	})
}
