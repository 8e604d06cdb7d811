package itinerary

// Aggregate returns the total distance, time (travel plus dwell) and cost of visiting
// seq in order from start, including the closing leg to end.
func Aggregate(est Estimator, start, end string, seq []Destination) Totals {
	var t Totals
	prev := start
	for _, d := range seq {
		f := est.Estimate(prev, d.Name)
		t.DistanceKm += f.DistanceKm
		t.Time += f.Duration + d.Dwell
		t.Cost += f.Cost
		prev = d.Name
	}

	closing := est.Estimate(prev, end)
	t.DistanceKm += closing.DistanceKm
	t.Time += closing.Duration
	t.Cost += closing.Cost

	return t
}

// Compare derives the result metrics from independently aggregated totals.
// Savings are never negative.
func Compare(original, optimized Totals, dropped []Destination) Metrics {
	m := Metrics{
		TotalDistanceKm: optimized.DistanceKm,
		TotalTime:       optimized.Time,
		DroppedPOIs:     destinationNames(dropped),
		DroppedCount:    len(dropped),
	}

	if saved := original.Time - optimized.Time; saved > 0 {
		m.TimeSaved = saved
	}
	if saved := original.Cost - optimized.Cost; saved > 0 {
		m.CostSaved = saved
	}

	return m
}
