// Package remote is a client for an external itinerary optimization service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripwise/tripwise/internal/geo"
	"github.com/tripwise/tripwise/internal/itinerary"
	"github.com/tripwise/tripwise/internal/provider/resilience"
)

const (
	// ProviderName identifies the remote itinerary provider.
	ProviderName = "itinerary-remote"

	// DefaultTimeout bounds a single remote call.
	DefaultTimeout = 8 * time.Second

	generatePath = "/api/itinerary/generate"
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the remote client.
type ClientConfig struct {
	// BaseURL of the remote service (required).
	BaseURL string

	// HTTPClient overrides the default single-attempt resilient client.
	HTTPClient HTTPDoer

	// Timeout bounds each call. Default: DefaultTimeout
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// Client calls the remote itinerary service. Calls are never retried.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a remote itinerary client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.NoRetry = true
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Optimize sends req to the remote service and converts its plans into a Result.
// req must already be normalized. Cost savings are not reported by the service and
// are left at zero.
func (c *Client) Optimize(ctx context.Context, req itinerary.Request) (*itinerary.Result, error) {
	body, err := json.Marshal(toWire(req))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("provider", ProviderName).
		Int("destinations", len(req.Destinations)).
		Str("mode", string(req.Mode)).
		Msg("requesting itinerary from remote service")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &itinerary.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  fmt.Sprintf("remote service returned status %d", resp.StatusCode),
			Err:      itinerary.ErrRemoteUnavailable,
		}
	}

	var wire generateResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, invalidResponse("response is not valid JSON")
	}

	res, err := toResult(req, &wire)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("optimized", len(res.OptimizedRoute)).
		Int("dropped", len(res.Dropped)).
		Msg("received itinerary from remote service")

	return res, nil
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &itinerary.Error{
			Provider: ProviderName,
			Code:     "TIMEOUT",
			Message:  "remote service did not respond in time",
			Err:      itinerary.ErrRemoteTimeout,
		}
	case errors.Is(err, resilience.ErrCircuitOpen):
		return &itinerary.Error{
			Provider: ProviderName,
			Code:     "CIRCUIT_OPEN",
			Message:  "remote service is temporarily disabled",
			Err:      itinerary.ErrRemoteUnavailable,
		}
	default:
		return &itinerary.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach remote service",
			Err:      itinerary.ErrRemoteUnavailable,
		}
	}
}

func invalidResponse(msg string) error {
	return &itinerary.Error{
		Provider: ProviderName,
		Code:     "INVALID_RESPONSE",
		Message:  msg,
		Err:      itinerary.ErrRemoteInvalidResponse,
	}
}

func toWire(req itinerary.Request) generateRequest {
	out := generateRequest{
		Start:     req.Start,
		End:       req.End,
		POIs:      make([]poiWire, 0, len(req.Destinations)),
		Mode:      string(req.Mode),
		RoundTrip: req.RoundTrip,
		StartTime: itinerary.ClockTime(req.StartTime),
		EndTime:   itinerary.ClockTime(req.EndTime),
		MaxMins:   int(req.MaxTime / time.Minute),
		Seed:      req.Seed,
	}
	for _, d := range req.Destinations {
		poi := poiWire{
			Name:         d.Name,
			Priority:     d.Priority,
			DwellMinutes: int(d.Dwell / time.Minute),
		}
		if d.TargetArrival != nil {
			poi.TargetArrival = itinerary.ClockTime(*d.TargetArrival)
		}
		out.POIs = append(out.POIs, poi)
	}
	return out
}

func toResult(req itinerary.Request, wire *generateResponse) (*itinerary.Result, error) {
	if wire.User == nil || wire.Optimized == nil {
		return nil, invalidResponse("response is missing a plan")
	}

	user, err := toPlan(req, wire.User, true)
	if err != nil {
		return nil, err
	}
	optimized, err := toPlan(req, wire.Optimized, false)
	if err != nil {
		return nil, err
	}

	res := &itinerary.Result{
		Source:         itinerary.SourceRemote,
		Seed:           req.Seed,
		Mode:           req.Mode,
		OriginalRoute:  req.Destinations,
		OptimizedRoute: optimized.Sequence,
		Dropped:        optimized.Dropped,
		UserPlan:       user,
		OptimizedPlan:  optimized,
	}

	if wire.Alternate != nil {
		alt, err := toPlan(req, wire.Alternate, false)
		if err != nil {
			return nil, err
		}
		if !sameRoute(alt.Sequence, optimized.Sequence) {
			res.AlternativeRoute = alt.Sequence
			res.AlternativePlan = &alt
		}
	}

	res.Metrics = itinerary.Compare(
		itinerary.Totals{DistanceKm: user.DistanceKm, Time: user.TotalTime},
		itinerary.Totals{DistanceKm: optimized.DistanceKm, Time: optimized.TotalTime},
		optimized.Dropped,
	)

	return res, nil
}

// destinationQueue hands out the request's destinations by name, so duplicate
// names resolve in request order.
type destinationQueue map[string][]itinerary.Destination

func newDestinationQueue(dests []itinerary.Destination) destinationQueue {
	q := make(destinationQueue, len(dests))
	for _, d := range dests {
		key := nameKey(d.Name)
		q[key] = append(q[key], d)
	}
	return q
}

func (q destinationQueue) take(name string) (itinerary.Destination, bool) {
	key := nameKey(name)
	pending := q[key]
	if len(pending) == 0 {
		return itinerary.Destination{}, false
	}
	q[key] = pending[1:]
	return pending[0], true
}

// toPlan maps a wire plan back onto the request's destinations. Destinations the
// plan neither visits nor drops are treated as dropped.
func toPlan(req itinerary.Request, wire *planResponse, flagOverTime bool) (itinerary.Plan, error) {
	queue := newDestinationQueue(req.Destinations)

	plan := itinerary.Plan{
		Sequence:   make([]itinerary.Destination, 0, len(wire.Sequence)),
		Dropped:    []itinerary.Destination{},
		TotalTime:  seconds(wire.TotalDurationS),
		DistanceKm: wire.TotalDistanceM / 1000,
		Legs:       make([]itinerary.Leg, 0, len(wire.Legs)),
		OverTime:   []string{},
	}

	for _, poi := range wire.Sequence {
		d, ok := queue.take(poi.Name)
		if !ok {
			return plan, invalidResponse(fmt.Sprintf("plan visits unknown destination %q", poi.Name))
		}
		plan.Sequence = append(plan.Sequence, d)
	}
	for _, poi := range wire.Dropped {
		if d, ok := queue.take(poi.Name); ok {
			plan.Dropped = append(plan.Dropped, d)
		}
	}
	for _, d := range req.Destinations {
		for {
			left, ok := queue.take(d.Name)
			if !ok {
				break
			}
			plan.Dropped = append(plan.Dropped, left)
		}
	}

	for i, wl := range wire.Legs {
		leg, err := toLeg(req.StartTime, wl)
		if err != nil {
			return plan, err
		}
		// Leg i arrives at stop i; the final leg arrives at the end location.
		if i < len(plan.Sequence) && nameKey(wl.To) == nameKey(plan.Sequence[i].Name) {
			d := plan.Sequence[i]
			leg.Dwell = d.Dwell
			leave := leg.Arrival.Add(d.Dwell)
			leg.Leave = &leave
			if d.TargetArrival != nil {
				leg.LateForTarget = leg.Arrival.After(*d.TargetArrival)
			}
			if flagOverTime && leg.Arrival.After(req.EndTime) {
				plan.OverTime = append(plan.OverTime, d.Name)
			}
		}
		plan.Legs = append(plan.Legs, leg)
	}

	return plan, nil
}

func toLeg(day time.Time, wl legResponse) (itinerary.Leg, error) {
	departure, err := itinerary.ParseClock(day, wl.Departure)
	if err != nil {
		return itinerary.Leg{}, invalidResponse("unreadable leg departure time")
	}
	arrival, err := itinerary.ParseClock(day, wl.Arrival)
	if err != nil {
		return itinerary.Leg{}, invalidResponse("unreadable leg arrival time")
	}
	if arrival.Before(departure) {
		arrival = arrival.Add(24 * time.Hour)
	}

	leg := itinerary.Leg{
		From:       wl.From,
		To:         wl.To,
		FromCoord:  geo.Coordinate{Lat: wl.FromLat, Lon: wl.FromLon},
		ToCoord:    geo.Coordinate{Lat: wl.ToLat, Lon: wl.ToLon},
		Departure:  departure,
		Arrival:    arrival,
		Duration:   seconds(wl.DurationS),
		DistanceKm: wl.DistanceM / 1000,
	}
	if wl.Weather != nil {
		leg.Weather = &itinerary.Weather{
			Condition:    wl.Weather.Condition,
			TemperatureC: wl.Weather.Temperature,
			WindSpeed:    wl.Weather.WindSpeed,
			RainMm:       wl.Weather.Rain,
		}
	}
	return leg, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s)) * time.Second
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sameRoute(a, b []itinerary.Destination) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
