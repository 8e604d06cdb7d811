package itinerary

import (
	"fmt"
	"strings"
	"time"

	"github.com/tripwise/tripwise/internal/geo"
)

// CurrentLocationName labels a reoptimized trip's start when only a position is known.
const CurrentLocationName = "Current location"

// ReoptimizeRequest describes a trip in progress: where the traveler is, what time it
// is and which destinations are still to be visited.
type ReoptimizeRequest struct {
	// Location names the traveler's position. When Position is set the name only
	// labels it and defaults to CurrentLocationName.
	Location string
	Position *geo.Coordinate

	End       string
	Remaining []Destination
	Mode      Mode

	// Now is the departure time of the new plan. Zero means time.Now().
	Now time.Time

	// EndTime closes the trip window. Zero means 22:00 on the day of Now.
	EndTime time.Time

	// MaxTime is the remaining time budget. Zero means the time left until EndTime.
	MaxTime time.Duration

	Seed int64
}

// Reoptimize plans the remaining destinations of a trip in progress. The search starts
// at the traveler's position, the plans depart at Now and the time left in the window
// is the budget, so destinations that no longer fit are dropped. The user plan keeps
// the remaining destinations in the order given.
func Reoptimize(req ReoptimizeRequest, resolver geo.Resolver, opts Options) (*Result, error) {
	optReq, resolver, err := reoptimizeRequest(req, resolver)
	if err != nil {
		return nil, err
	}
	return Optimize(optReq, resolver, opts)
}

// reoptimizeRequest converts a trip in progress into an optimization request that
// departs now, with a resolver that knows the traveler's position.
func reoptimizeRequest(req ReoptimizeRequest, resolver geo.Resolver) (Request, geo.Resolver, error) {
	location := strings.TrimSpace(req.Location)
	if req.Position != nil {
		if err := req.Position.Validate(); err != nil {
			return Request{}, nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
		}
		if location == "" {
			location = CurrentLocationName
		}
		if resolver == nil {
			resolver = geo.NewGazetteer(nil)
		}
		resolver = pinnedResolver{
			Resolver: resolver,
			pinned:   geo.Location{Name: location, Coordinate: *req.Position},
		}
	}
	if location == "" {
		return Request{}, nil, ErrMissingLocation
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	end := req.EndTime
	if end.IsZero() {
		y, m, d := now.Date()
		end = time.Date(y, m, d, DefaultWindowEndHour, 0, 0, 0, now.Location())
	}

	return Request{
		Start:           location,
		End:             req.End,
		Destinations:    req.Remaining,
		Mode:            req.Mode,
		StartTime:       now,
		EndTime:         end,
		MaxTime:         req.MaxTime,
		UseWindowBudget: true,
		Seed:            req.Seed,
	}, resolver, nil
}

// pinnedResolver resolves one name to a fixed location and defers everything else.
type pinnedResolver struct {
	geo.Resolver
	pinned geo.Location
}

func (r pinnedResolver) Resolve(name string) geo.Location {
	if strings.EqualFold(strings.TrimSpace(name), r.pinned.Name) {
		return r.pinned
	}
	return r.Resolver.Resolve(name)
}
