package itinerary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripwise/tripwise/internal/catalog"
	"github.com/tripwise/tripwise/internal/featureflags"
	"github.com/tripwise/tripwise/internal/geo"
	"github.com/tripwise/tripwise/internal/telemetry"
)

const tracerName = "github.com/tripwise/tripwise/internal/itinerary"

// DefaultRecommendationLimit caps recommendation lists when no limit is given.
const DefaultRecommendationLimit = 10

// ServiceConfig holds configuration for the itinerary service.
type ServiceConfig struct {
	// Remote is the optional external optimizer tried before the local engine.
	Remote Remote

	// RemoteTimeout bounds each remote call (default: 8 seconds).
	RemoteTimeout time.Duration

	// Catalog provides known places for name resolution and recommendations.
	// When nil every name resolves to the fallback coordinate.
	Catalog catalog.Repository

	// CatalogTTL is how long the resolved place index is reused (default: 5 minutes).
	CatalogTTL time.Duration

	// Weather, when set, replaces synthesized leg weather with current conditions.
	Weather LiveWeather

	// WeatherTimeout bounds the weather lookups of one optimization (default: 3 seconds).
	WeatherTimeout time.Duration

	// Flags switches remote delegation and live weather off at runtime. Optional.
	Flags *featureflags.Service

	Options Options
	Metrics *telemetry.ItineraryMetrics
	Logger  zerolog.Logger
}

// Service runs optimizations, delegating to the remote optimizer when configured and
// falling back to the local engine on any remote failure.
type Service struct {
	remote         Remote
	remoteTimeout  time.Duration
	catalog        catalog.Repository
	catalogTTL     time.Duration
	weather        LiveWeather
	weatherTimeout time.Duration
	flags          *featureflags.Service
	opts           Options
	metrics        *telemetry.ItineraryMetrics
	logger         zerolog.Logger
	tracer         trace.Tracer

	mu       sync.RWMutex
	index    *geo.Gazetteer
	places   []*catalog.Place
	loadedAt time.Time
}

// NewService creates a new itinerary service.
func NewService(cfg ServiceConfig) *Service {
	remoteTimeout := cfg.RemoteTimeout
	if remoteTimeout == 0 {
		remoteTimeout = 8 * time.Second
	}

	catalogTTL := cfg.CatalogTTL
	if catalogTTL == 0 {
		catalogTTL = 5 * time.Minute
	}

	weatherTimeout := cfg.WeatherTimeout
	if weatherTimeout == 0 {
		weatherTimeout = 3 * time.Second
	}

	return &Service{
		remote:         cfg.Remote,
		remoteTimeout:  remoteTimeout,
		catalog:        cfg.Catalog,
		catalogTTL:     catalogTTL,
		weather:        cfg.Weather,
		weatherTimeout: weatherTimeout,
		flags:          cfg.Flags,
		opts:           cfg.Options.withDefaults(),
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		tracer:         otel.Tracer(tracerName),
	}
}

// Optimize validates req and returns an optimized itinerary. Validation errors are
// returned as-is; remote failures are logged and answered by the local engine.
func (s *Service) Optimize(ctx context.Context, req Request) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "itinerary.Optimize")
	defer span.End()
	started := time.Now()

	req, err := Normalize(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("itinerary.destinations", len(req.Destinations)),
		attribute.String("itinerary.mode", string(req.Mode)),
		attribute.Int64("itinerary.seed", req.Seed),
	)

	resolver := s.resolver(ctx)

	if s.remote != nil && !s.flags.IsRemoteOptimizerDisabled(ctx) {
		res, err := s.optimizeRemote(ctx, req)
		if err == nil {
			s.fillCostSaved(res, req, resolver)
			s.applyLiveWeather(ctx, res)
			s.finish(span, res, started)
			return res, nil
		}

		reason := fallbackReason(err)
		s.metrics.RecordFallback(s.remote.Name(), reason)
		span.AddEvent("remote fallback", trace.WithAttributes(attribute.String("reason", reason)))
		s.logger.Warn().
			Err(err).
			Str("provider", s.remote.Name()).
			Str("reason", reason).
			Msg("remote optimization failed, using local engine")
	}

	res, err := Optimize(req, resolver, s.localOptions(ctx))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.applyLiveWeather(ctx, res)
	s.finish(span, res, started)
	return res, nil
}

// Reoptimize re-plans the remaining destinations of a trip in progress from the
// traveler's current position and time. It always runs the local engine.
func (s *Service) Reoptimize(ctx context.Context, req ReoptimizeRequest) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "itinerary.Reoptimize")
	defer span.End()
	started := time.Now()

	span.SetAttributes(
		attribute.Int("itinerary.destinations", len(req.Remaining)),
		attribute.Bool("itinerary.position", req.Position != nil),
	)

	res, err := Reoptimize(req, s.resolver(ctx), s.localOptions(ctx))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.applyLiveWeather(ctx, res)
	s.finish(span, res, started)
	return res, nil
}

func (s *Service) localOptions(ctx context.Context) Options {
	opts := s.opts
	if n := s.flags.SearchTrials(ctx); n > 0 {
		opts.Trials = n
	}
	return opts
}

func (s *Service) optimizeRemote(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	started := time.Now()
	res, err := s.remote.Optimize(ctx, req)
	s.metrics.RecordRequest(s.remote.Name(), "optimize", time.Since(started), err)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &Error{
			Provider: s.remote.Name(),
			Code:     "EMPTY_RESPONSE",
			Message:  "remote service returned no result",
			Err:      ErrRemoteInvalidResponse,
		}
	}
	return res, nil
}

// fillCostSaved estimates cost savings for remote results, which carry no costs.
func (s *Service) fillCostSaved(res *Result, req Request, resolver geo.Resolver) {
	est := NewSynthesizer(resolver, req.Mode, req.Seed)
	end := req.EndLocation()
	original := Aggregate(est, req.Start, end, res.OriginalRoute)
	optimized := Aggregate(est, req.Start, end, res.OptimizedRoute)
	if saved := original.Cost - optimized.Cost; saved > 0 {
		res.Metrics.CostSaved = saved
	}
}

func (s *Service) finish(span trace.Span, res *Result, started time.Time) {
	span.SetAttributes(
		attribute.String("itinerary.source", string(res.Source)),
		attribute.Int("itinerary.dropped", len(res.Dropped)),
	)
	s.metrics.RecordRun(string(res.Source), string(res.Mode), time.Since(started), len(res.Dropped))
	s.logger.Info().
		Str("source", string(res.Source)).
		Int("destinations", len(res.OriginalRoute)).
		Int("dropped", len(res.Dropped)).
		Dur("time_saved", res.Metrics.TimeSaved).
		Msg("itinerary optimized")
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrRemoteTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrRemoteInvalidResponse):
		return "invalid_response"
	default:
		return "unavailable"
	}
}

// RecommendRequest is the input to Recommend.
type RecommendRequest struct {
	Start    string
	End      string
	Mode     Mode
	Category string
	Limit    int
	Seed     int64
}

// Recommend ranks catalog places for a trip from Start to End (Start when End is empty).
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) ([]Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "itinerary.Recommend")
	defer span.End()

	req.Start = strings.TrimSpace(req.Start)
	req.End = strings.TrimSpace(req.End)
	if req.Start == "" {
		return nil, ErrMissingStart
	}
	if req.End == "" {
		req.End = req.Start
	}
	if !req.Mode.Valid() {
		req.Mode = ModeDriving
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	places, err := s.Places(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	candidates := make([]geo.Location, 0, len(places))
	for _, p := range places {
		if req.Category != "" && !strings.EqualFold(p.Category, req.Category) {
			continue
		}
		candidates = append(candidates, p.Location())
	}

	est := NewSynthesizer(s.resolver(ctx), req.Mode, req.Seed)
	recs := Recommend(est, req.Start, req.End, candidates, s.opts)
	if len(recs) > limit {
		recs = recs[:limit]
	}
	span.SetAttributes(attribute.Int("itinerary.recommendations", len(recs)))
	return recs, nil
}

// Places returns the catalog, reusing the cached copy while it is fresh.
func (s *Service) Places(ctx context.Context) ([]*catalog.Place, error) {
	if s.catalog == nil {
		return []*catalog.Place{}, nil
	}

	s.mu.RLock()
	if s.index != nil && time.Since(s.loadedAt) < s.catalogTTL {
		places := s.places
		s.mu.RUnlock()
		return places, nil
	}
	s.mu.RUnlock()

	places, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}

	s.mu.Lock()
	s.places = places
	s.index = catalog.Gazetteer(places)
	s.loadedAt = time.Now()
	s.mu.Unlock()

	return places, nil
}

// resolver returns the place index. On catalog errors the last index (or an empty one)
// is used so optimization can still run on fallback coordinates.
func (s *Service) resolver(ctx context.Context) geo.Resolver {
	if _, err := s.Places(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("place catalog unavailable, using cached index")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return geo.NewGazetteer(nil)
	}
	return s.index
}
