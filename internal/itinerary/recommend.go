package itinerary

import (
	"sort"
	"time"

	"github.com/tripwise/tripwise/internal/geo"
)

// Price tiers derived from the estimated cost of reaching a place.
const (
	PriceBudget   = "$"
	PriceModerate = "$$"
	PricePremium  = "$$$"
)

// DetourRatio bounds the on-route heuristic: a place is on route when going through
// it is at most this many times the direct distance.
const DetourRatio = 1.5

// Recommendation is a ranked catalog place.
type Recommendation struct {
	Location   geo.Location
	Score      float64
	DistanceKm float64
	Detour     time.Duration
	PriceTier  string

	// OnRoute is advisory only and is not reconciled with any chosen route.
	OnRoute bool
}

// Recommend ranks candidate places for a trip from start to end. Each place is
// scored on the leg from start with a neutral priority; the result is sorted by
// score descending, keeping input order for ties.
func Recommend(est Estimator, start, end string, candidates []geo.Location, opts Options) []Recommendation {
	opts = opts.withDefaults()

	direct := est.Estimate(start, end)
	out := make([]Recommendation, 0, len(candidates))
	for _, loc := range candidates {
		in := est.Estimate(start, loc.Name)
		onward := est.Estimate(loc.Name, end)

		// Catalog attributes take precedence over synthesized ones.
		if loc.Rating > 0 {
			in.Rating = loc.Rating
		}
		if loc.Popularity > 0 {
			in.Popularity = loc.Popularity
		}

		detour := in.Duration + onward.Duration - direct.Duration
		if detour < 0 {
			detour = 0
		}

		out = append(out, Recommendation{
			Location:   loc,
			Score:      Score(in, opts.NeutralPriority, opts.Weights),
			DistanceKm: in.DistanceKm,
			Detour:     detour,
			PriceTier:  PriceTier(in.Cost),
			OnRoute:    in.DistanceKm+onward.DistanceKm <= DetourRatio*direct.DistanceKm,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// PriceTier maps an estimated cost to a price tier.
func PriceTier(cost float64) string {
	switch {
	case cost < 100:
		return PriceBudget
	case cost < 250:
		return PriceModerate
	default:
		return PricePremium
	}
}
