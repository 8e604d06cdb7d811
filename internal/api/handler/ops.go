package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/tripwise/tripwise/internal/api/models"
	"github.com/tripwise/tripwise/internal/api/response"
	"github.com/tripwise/tripwise/internal/provider/resilience"
	"github.com/tripwise/tripwise/internal/weather"
)

// checkTimeout bounds each dependency check.
const checkTimeout = 2 * time.Second

// Check is a named dependency probe used by readiness and status.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// WeatherCache reports the observation cache of the live weather service.
type WeatherCache interface {
	CacheStats() weather.CacheStats
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	checks    []Check
	weather   WeatherCache
}

// NewOpsHandler creates an OpsHandler. registry may be nil when no upstream
// provider is configured.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, checks ...Check) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		checks:    checks,
	}
}

// WithWeatherCache adds the weather observation cache to the system status.
func (h *OpsHandler) WithWeatherCache(c WeatherCache) *OpsHandler {
	h.weather = c
	return h
}

// HealthCheck handles GET /v1/ops/health - liveness.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]string{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. It answers 503 when any dependency
// check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(time.Now()),
		Details: map[string]string{},
	}

	for _, s := range h.runChecks(r.Context()) {
		if s.Status != models.HealthStatusOK {
			health.Status = models.HealthStatusFail
			health.Details[s.Name] = s.Detail
			continue
		}
		health.Details[s.Name] = "ok"
	}

	status := http.StatusOK
	if health.Status != models.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status. A failing dependency makes the
// service FAIL; an upstream provider with an open or half-open breaker only
// degrades it, since optimization falls back to the local engine.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: h.runChecks(r.Context()),
		Providers:  []models.ProviderStatus{},
	}

	if h.registry != nil {
		for _, p := range h.registry.GetAllHealth() {
			ps := toProviderStatus(p)
			if ps.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.weather != nil {
		stats := h.weather.CacheStats()
		status.Caches = append(status.Caches, models.CacheStatus{
			Name:         "weather",
			Provider:     stats.Provider,
			Entries:      stats.Entries,
			FreshEntries: stats.FreshEntries,
		})
	}

	for _, s := range status.Subsystems {
		if s.Status == models.HealthStatusFail {
			status.Status = models.HealthStatusFail
			break
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) runChecks(ctx context.Context) []models.SubsystemStatus {
	out := make([]models.SubsystemStatus, 0, len(h.checks))
	for _, c := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.Ping(checkCtx)
		cancel()

		s := models.SubsystemStatus{Name: c.Name, Status: models.HealthStatusOK}
		if err != nil {
			s.Status = models.HealthStatusFail
			s.Detail = err.Error()
		}
		out = append(out, s)
	}
	return out
}

func toProviderStatus(p *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:      p.Name,
		Status:        models.HealthStatusOK,
		CircuitState:  p.CircuitState.String(),
		TotalRequests: int64(p.Counts.Requests),
		TotalFailures: int64(p.Counts.TotalFailures),
		LastError:     p.LastError,
	}
	switch p.Status() {
	case resilience.StatusUnhealthy:
		ps.Status = models.HealthStatusFail
	case resilience.StatusDegraded:
		ps.Status = models.HealthStatusDegraded
	}
	if p.LastSuccessAt != nil {
		ts := models.Timestamp(*p.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if p.LastFailureAt != nil {
		ts := models.Timestamp(*p.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	return ps
}
