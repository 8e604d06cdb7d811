// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tripwise/tripwise/internal/database"
	"github.com/tripwise/tripwise/internal/featureflags"
)

// Catalog backends.
const (
	CatalogMemory   = "memory"
	CatalogSQLite   = "sqlite"
	CatalogPostgres = "postgres"
)

// ErrInvalidConfig wraps every configuration error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete service configuration.
type Config struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration

	OTELEnabled     bool
	OTLPEndpoint    string
	OTELSampleRatio float64

	// CatalogBackend is one of memory, sqlite or postgres.
	CatalogBackend string
	SQLitePath     string
	// SeedFile is an optional YAML file of places loaded into the catalog at startup.
	SeedFile string

	Database database.Config

	// RemoteURL enables delegation to a remote itinerary service when set.
	RemoteURL     string
	RemoteTimeout time.Duration

	// WeightsFile is an optional YAML file overriding the scoring weights.
	WeightsFile string
	Trials      int

	// OpenWeatherAPIKey enables live leg weather when set.
	OpenWeatherAPIKey string
	WeatherCacheTTL   time.Duration

	// RateLimit is the number of optimize/recommend requests allowed per IP per minute.
	RateLimit int

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	// FeatureFlags are applied to the flag store at startup, from key=value pairs.
	FeatureFlags []*featureflags.Flag
}

// FromEnv reads the configuration from the environment, applying defaults.
func FromEnv() (Config, error) {
	var errs []error
	e := env{errs: &errs}

	cfg := Config{
		Port:            e.str("APP_PORT", "8080"),
		Environment:     e.str("APP_ENV", "development"),
		ShutdownTimeout: e.duration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),

		OTELEnabled:     e.boolean("OTEL_ENABLED", false),
		OTLPEndpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELSampleRatio: e.float("OTEL_SAMPLE_RATIO", 1),

		CatalogBackend: strings.ToLower(e.str("CATALOG_BACKEND", CatalogSQLite)),
		SQLitePath:     e.str("CATALOG_SQLITE_PATH", "poi_cache.db"),
		SeedFile:       e.str("CATALOG_SEED_FILE", ""),

		Database: database.Config{
			Host:            e.str("DB_HOST", "localhost"),
			Port:            e.integer("DB_PORT", 5432),
			User:            e.str("DB_USER", "tripwise"),
			Password:        e.str("DB_PASSWORD", "localdev"),
			Database:        e.str("DB_NAME", "tripwise"),
			SSLMode:         e.str("DB_SSL_MODE", "disable"),
			MaxConns:        e.integer("DB_MAX_CONNS", 10),
			MinConns:        e.integer("DB_MIN_CONNS", 1),
			ConnMaxLifetime: e.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		RemoteURL:     e.str("ITINERARY_REMOTE_URL", ""),
		RemoteTimeout: e.duration("ITINERARY_REMOTE_TIMEOUT", 8*time.Second),

		WeightsFile: e.str("ITINERARY_WEIGHTS_FILE", ""),
		Trials:      e.integer("ITINERARY_TRIALS", 100),

		OpenWeatherAPIKey: e.str("OPENWEATHER_API_KEY", ""),
		WeatherCacheTTL:   e.duration("WEATHER_CACHE_TTL", 10*time.Minute),

		RateLimit:  e.integer("RATE_LIMIT_PER_MINUTE", 60),
		RequireTLS: e.boolean("REQUIRE_TLS", false),
	}

	switch cfg.CatalogBackend {
	case CatalogMemory, CatalogSQLite, CatalogPostgres:
	default:
		errs = append(errs, fmt.Errorf("CATALOG_BACKEND: unknown backend %q", cfg.CatalogBackend))
	}
	flags, err := featureflags.ParseFlags(e.str("FEATURE_FLAGS", ""))
	if err != nil {
		errs = append(errs, fmt.Errorf("FEATURE_FLAGS: %w", err))
	}
	cfg.FeatureFlags = flags

	if cfg.Trials <= 0 {
		errs = append(errs, errors.New("ITINERARY_TRIALS: must be positive"))
	}
	if cfg.OTELSampleRatio <= 0 || cfg.OTELSampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATIO: must be in (0,1]"))
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

type env struct {
	errs *[]error
}

func (e env) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e env) integer(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e env) float(key string, def float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (e env) boolean(key string, def bool) bool {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (e env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
