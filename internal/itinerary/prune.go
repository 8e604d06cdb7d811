package itinerary

import (
	"sort"
	"time"
)

// PruneResult is the outcome of fitting a route into a time budget.
type PruneResult struct {
	Admitted []Destination
	Dropped  []Destination

	// Elapsed is the travel plus dwell time of the admitted destinations,
	// excluding the closing leg.
	Elapsed time.Duration
}

// Prune keeps the most important destinations that fit into safety × budget.
//
// Destinations are visited in priority-descending order (stable for equal
// priorities), starting at start. A destination is admitted only if the elapsed time
// after its leg and dwell stays within the limit; the position advances only on
// admission. Everything else is dropped in encounter order. The admitted order is
// by priority, not by travel efficiency.
func Prune(est Estimator, start string, route []Destination, budget time.Duration, safety float64) PruneResult {
	ordered := copyDestinations(route)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	limit := time.Duration(float64(budget) * safety)
	res := PruneResult{
		Admitted: []Destination{},
		Dropped:  []Destination{},
	}

	prev := start
	for _, d := range ordered {
		f := est.Estimate(prev, d.Name)
		next := res.Elapsed + f.Duration + d.Dwell
		if next > limit {
			res.Dropped = append(res.Dropped, d)
			continue
		}
		res.Elapsed = next
		res.Admitted = append(res.Admitted, d)
		prev = d.Name
	}

	return res
}

// FitBudget trims the searched route to the budget. Pruning runs only when the
// route, closing leg included, exceeds safety × budget, and the searched order is
// kept unless pruning had to drop a destination. A zero budget disables it.
func FitBudget(est Estimator, start string, best RouteCandidate, budget time.Duration, safety float64) (admitted, dropped []Destination) {
	if budget <= 0 || float64(best.Time) <= float64(budget)*safety {
		return copyDestinations(best.Sequence), []Destination{}
	}
	pruned := Prune(est, start, best.Sequence, budget, safety)
	if len(pruned.Dropped) == 0 {
		return copyDestinations(best.Sequence), pruned.Dropped
	}
	return pruned.Admitted, pruned.Dropped
}
