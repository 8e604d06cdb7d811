package itinerary

import (
	"math/rand"
	"time"
)

// Options tune the search, pruning and ranking.
type Options struct {
	// Trials is the number of random orderings sampled by the search.
	Trials int

	// OverBudgetPenalty is subtracted from a route score per minute the route
	// exceeds the time budget.
	OverBudgetPenalty float64

	// SafetyFactor is the share of the budget the pruner may fill.
	SafetyFactor float64

	// NeutralPriority is the priority used when ranking catalog places.
	NeutralPriority int

	Weights Weights
}

// DefaultOptions returns the standard engine options.
func DefaultOptions() Options {
	return Options{
		Trials:            100,
		OverBudgetPenalty: 0.01,
		SafetyFactor:      0.9,
		NeutralPriority:   3,
		Weights:           DefaultWeights(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Trials <= 0 {
		o.Trials = d.Trials
	}
	if o.OverBudgetPenalty <= 0 {
		o.OverBudgetPenalty = d.OverBudgetPenalty
	}
	if o.SafetyFactor <= 0 || o.SafetyFactor > 1 {
		o.SafetyFactor = d.SafetyFactor
	}
	if o.NeutralPriority == 0 {
		o.NeutralPriority = d.NeutralPriority
	}
	if o.Weights == (Weights{}) {
		o.Weights = d.Weights
	}
	return o
}

// Evaluate scores an ordering from start to end. The score sums the desirability
// of every leg into a destination; time and cost include the closing leg to end.
func Evaluate(est Estimator, start, end string, seq []Destination, w Weights) RouteCandidate {
	c := RouteCandidate{Sequence: seq}
	prev := start
	for _, d := range seq {
		f := est.Estimate(prev, d.Name)
		c.Score += Score(f, d.Priority, w)
		c.Time += f.Duration + d.Dwell
		c.Cost += f.Cost
		c.DistanceKm += f.DistanceKm
		prev = d.Name
	}

	closing := est.Estimate(prev, end)
	c.Time += closing.Duration
	c.Cost += closing.Cost
	c.DistanceKm += closing.DistanceKm

	return c
}

// Search samples opts.Trials uniformly random orderings of dests and returns the
// highest scoring one. When budget is positive, each route score is reduced by
// opts.OverBudgetPenalty per minute over budget. Ties keep the first ordering found.
//
// This is a best-effort local search: it always does exactly opts.Trials evaluations
// and gives no optimality guarantee. With a fixed rng seed the result is deterministic.
func Search(est Estimator, start, end string, dests []Destination, budget time.Duration, rng *rand.Rand, opts Options) RouteCandidate {
	opts = opts.withDefaults()
	if len(dests) == 0 {
		return Evaluate(est, start, end, nil, opts.Weights)
	}

	var best RouteCandidate
	found := false
	for trial := 0; trial < opts.Trials; trial++ {
		perm := rng.Perm(len(dests))
		seq := make([]Destination, len(dests))
		for i, j := range perm {
			seq[i] = dests[j]
		}

		c := Evaluate(est, start, end, seq, opts.Weights)
		if budget > 0 && c.Time > budget {
			c.Score -= opts.OverBudgetPenalty * (c.Time - budget).Minutes()
		}

		if !found || c.Score > best.Score {
			best = c
			found = true
		}
	}

	return best
}
