package itinerary

import (
	"math/rand"
	"strings"
	"time"

	"github.com/tripwise/tripwise/internal/geo"
)

// Default trip window, as hour of day.
const (
	DefaultWindowStartHour = 9
	DefaultWindowEndHour   = 22
)

// Normalize validates req and returns a copy with defaults applied: travel mode,
// seed, trip window, destination ids, dwell and priority bounds. The caller's
// destinations are never modified.
func Normalize(req Request) (Request, error) {
	req.Start = strings.TrimSpace(req.Start)
	req.End = strings.TrimSpace(req.End)
	if req.Start == "" {
		return req, ErrMissingStart
	}
	if !req.RoundTrip && req.End == "" {
		return req, ErrMissingEnd
	}
	if len(req.Destinations) == 0 {
		return req, ErrNoDestinations
	}

	if !req.Mode.Valid() {
		req.Mode = ModeDriving
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	if req.StartTime.IsZero() {
		y, m, d := time.Now().Date()
		req.StartTime = time.Date(y, m, d, DefaultWindowStartHour, 0, 0, 0, time.Local)
	}
	if req.EndTime.IsZero() {
		y, m, d := req.StartTime.Date()
		req.EndTime = time.Date(y, m, d, DefaultWindowEndHour, 0, 0, 0, req.StartTime.Location())
	}
	if !req.EndTime.After(req.StartTime) {
		return req, ErrInvalidTimeWindow
	}

	dests := copyDestinations(req.Destinations)
	for i := range dests {
		d := &dests[i]
		d.Name = strings.TrimSpace(d.Name)
		if d.ID == "" {
			d.ID = NewDestinationID()
		}
		if d.Dwell < 0 {
			d.Dwell = DefaultDwell
		}
		d.Priority = clampPriority(d.Priority)
	}
	req.Destinations = dests

	return req, nil
}

// Optimize runs the local engine: search, optional pruning, the alternate ordering,
// per-plan leg breakdowns and comparative metrics. It performs no I/O.
//
// When the request has a time budget and the searched route does not fit within
// opts.SafetyFactor of it, the route is pruned to the highest-priority destinations
// that do.
func Optimize(req Request, resolver geo.Resolver, opts Options) (*Result, error) {
	req, err := Normalize(req)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	//nolint:gosec // search sampling, not security-sensitive
	rng := rand.New(rand.NewSource(req.Seed))
	est := NewSynthesizer(resolver, req.Mode, req.Seed)
	start, end := req.Start, req.EndLocation()
	budget := req.Budget()

	best := Search(est, start, end, req.Destinations, budget, rng, opts)
	optimized, dropped := FitBudget(est, start, best, budget, opts.SafetyFactor)

	res := &Result{
		Source:         SourceLocal,
		Seed:           req.Seed,
		Mode:           req.Mode,
		OriginalRoute:  copyDestinations(req.Destinations),
		OptimizedRoute: optimized,
		Dropped:        dropped,
		Score:          best.Score,
	}

	res.UserPlan = BuildPlan(est, est, PlanInput{
		Start:     start,
		End:       end,
		Sequence:  res.OriginalRoute,
		Departure: req.StartTime,
		WindowEnd: req.EndTime,
	})
	res.OptimizedPlan = BuildPlan(est, est, PlanInput{
		Start:     start,
		End:       end,
		Sequence:  optimized,
		Dropped:   dropped,
		Departure: req.StartTime,
	})

	if alt := Alternate(req.Destinations); !sameOrder(alt, optimized) {
		res.AlternativeRoute = alt
		plan := BuildPlan(est, est, PlanInput{
			Start:     start,
			End:       end,
			Sequence:  alt,
			Departure: req.StartTime,
		})
		res.AlternativePlan = &plan
	}

	original := Aggregate(est, start, end, res.OriginalRoute)
	optimizedTotals := Aggregate(est, start, end, optimized)
	res.Metrics = Compare(original, optimizedTotals, dropped)

	return res, nil
}
