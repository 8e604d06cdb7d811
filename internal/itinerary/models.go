// Package itinerary recommends a visiting order for a set of destinations.
//
// The engine is a bounded stochastic search, not an exact solver: it samples a fixed
// number of random orderings, scores each with the desirability function and keeps the
// best one. Travel between two named locations is a synthesized estimate derived from
// great-circle distance and seeded randomness, not a routed path. Given the same input
// and seed, every result is reproducible.
package itinerary

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tripwise/tripwise/internal/geo"
)

// Sentinel errors for itinerary operations.
var (
	// ErrMissingStart indicates the start location was not provided.
	ErrMissingStart = errors.New("start location is required")
	// ErrMissingEnd indicates the end location was not provided for a one-way trip.
	ErrMissingEnd = errors.New("end location is required")
	// ErrNoDestinations indicates the destination list is empty.
	ErrNoDestinations = errors.New("at least one destination is required")
	// ErrInvalidTimeWindow indicates the window end is not after its start.
	ErrInvalidTimeWindow = errors.New("end time must be after start time")
	// ErrMissingLocation indicates a reoptimization without the traveler's position.
	ErrMissingLocation = errors.New("current location is required")
	// ErrInvalidPosition indicates a current position outside valid coordinate ranges.
	ErrInvalidPosition = errors.New("invalid current position")
)

// Mode is a travel mode.
type Mode string

const (
	ModeDriving   Mode = "driving"
	ModeWalking   Mode = "walking"
	ModeBicycling Mode = "bicycling"
	ModeTransit   Mode = "transit"
)

// Valid reports whether m is a known travel mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeDriving, ModeWalking, ModeBicycling, ModeTransit:
		return true
	}
	return false
}

// Priority bounds. 5 is the most urgent.
const (
	MinPriority = 1
	MaxPriority = 5
)

// DefaultDwell is used when a destination has a negative dwell time.
const DefaultDwell = 15 * time.Minute

// Destination is a place the traveler wants to visit.
type Destination struct {
	ID       string
	Name     string
	Category string
	Priority int
	Dwell    time.Duration

	// TargetArrival is the optional wall-clock time the traveler wants to arrive.
	TargetArrival *time.Time

	Note string
}

// NewDestinationID generates a destination identifier.
func NewDestinationID() string {
	return "dst_" + uuid.New().String()[:12]
}

// TravelFactors describes one directed leg between two locations.
// All fields other than the endpoints and DistanceKm are estimates.
type TravelFactors struct {
	From geo.Location
	To   geo.Location

	DistanceKm     float64
	WalkDistanceKm float64
	TrafficLights  int

	// Traffic condition ratios; they sum to 1.
	ExpediteRatio  float64
	SlowRatio      float64
	CongestedRatio float64
	UnknownRatio   float64

	Duration time.Duration
	Cost     float64

	// Service attributes of the arrival location.
	Rating     float64
	Popularity int
}

// RouteCandidate is one complete ordering evaluated against a start/end pair.
type RouteCandidate struct {
	Sequence   []Destination
	Score      float64
	Time       time.Duration
	Cost       float64
	DistanceKm float64
}

// Totals are the aggregate distance, time and cost of a sequence.
type Totals struct {
	DistanceKm float64
	Time       time.Duration
	Cost       float64
}

// Weather is a snapshot of conditions at a leg's arrival location.
type Weather struct {
	Condition    string
	TemperatureC float64
	WindSpeed    float64 // m/s
	RainMm       float64 // mm in the last hour
}

// Leg is one step of a plan.
type Leg struct {
	From          string
	To            string
	FromCoord     geo.Coordinate
	ToCoord       geo.Coordinate
	Departure     time.Time
	Arrival       time.Time
	Leave         *time.Time // nil for the closing leg
	Duration      time.Duration
	DistanceKm    float64
	Dwell         time.Duration
	Weather       *Weather
	LateForTarget bool
}

// Plan is an ordered sequence with its legs and totals.
type Plan struct {
	Sequence   []Destination
	Dropped    []Destination
	TotalTime  time.Duration
	DistanceKm float64
	Cost       float64
	Legs       []Leg

	// OverTime lists destinations whose arrival is after the end of the time window.
	OverTime []string
}

// Metrics compares the optimized plan against the original order.
type Metrics struct {
	TotalDistanceKm float64
	TotalTime       time.Duration
	TimeSaved       time.Duration
	CostSaved       float64
	DroppedPOIs     []string
	DroppedCount    int
}

// Source identifies where a result was computed.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Result is the output of one optimization run.
type Result struct {
	Source Source
	Seed   int64
	Mode   Mode

	OriginalRoute    []Destination
	OptimizedRoute   []Destination
	AlternativeRoute []Destination
	Dropped          []Destination

	UserPlan        Plan
	OptimizedPlan   Plan
	AlternativePlan *Plan

	Score   float64
	Metrics Metrics
}

// Request is the input to an optimization run.
type Request struct {
	Start        string
	End          string
	Destinations []Destination
	Mode         Mode
	RoundTrip    bool

	// StartTime and EndTime bound the trip window. Zero values default to 09:00 and
	// 22:00 today.
	StartTime time.Time
	EndTime   time.Time

	// MaxTime is the total time budget. Zero means the window length is used when
	// UseWindowBudget is set, and no budget otherwise.
	MaxTime         time.Duration
	UseWindowBudget bool

	// Seed drives all randomness. Zero seeds from the clock.
	Seed int64
}

// Budget returns the effective time budget, or 0 when there is none.
func (r *Request) Budget() time.Duration {
	if r.MaxTime > 0 {
		return r.MaxTime
	}
	if r.UseWindowBudget && r.EndTime.After(r.StartTime) {
		return r.EndTime.Sub(r.StartTime)
	}
	return 0
}

// EndLocation returns the effective end location.
func (r *Request) EndLocation() string {
	if r.RoundTrip {
		return r.Start
	}
	return r.End
}

func copyDestinations(in []Destination) []Destination {
	if in == nil {
		return nil
	}
	out := make([]Destination, len(in))
	copy(out, in)
	return out
}

func destinationNames(ds []Destination) []string {
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
	}
	return names
}

func sameOrder(a, b []Destination) bool {
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
