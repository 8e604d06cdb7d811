package itinerary

import "time"

// TargetArrivalLead is how early the traveler aims to arrive before a target arrival.
const TargetArrivalLead = 5 * time.Minute

// WeatherSource provides a weather snapshot for a named location.
type WeatherSource interface {
	WeatherAt(name string) Weather
}

// PlanInput describes a sequence to lay out on the clock.
type PlanInput struct {
	Start    string
	End      string
	Sequence []Destination
	Dropped  []Destination

	// Departure is when the traveler leaves the start location.
	Departure time.Time

	// WindowEnd, when set, flags destinations reached after it.
	WindowEnd time.Time
}

// BuildPlan lays out a sequence as timed legs, ending with the closing leg to the end
// location. When a destination has a target arrival the traveler waits so as to arrive
// TargetArrivalLead before it; if that is not possible the leg departs immediately and
// is marked late when it arrives after the target. weather may be nil.
//
// TotalTime counts travel and dwell only, so it matches Aggregate for the same sequence.
func BuildPlan(est Estimator, weather WeatherSource, in PlanInput) Plan {
	plan := Plan{
		Sequence: copyDestinations(in.Sequence),
		Dropped:  copyDestinations(in.Dropped),
		Legs:     make([]Leg, 0, len(in.Sequence)+1),
		OverTime: []string{},
	}
	if plan.Dropped == nil {
		plan.Dropped = []Destination{}
	}

	now := in.Departure
	prev := in.Start
	for _, d := range in.Sequence {
		f := est.Estimate(prev, d.Name)

		departure := now
		arrival := departure.Add(f.Duration)
		late := false
		if d.TargetArrival != nil {
			aim := d.TargetArrival.Add(-TargetArrivalLead)
			if ideal := aim.Add(-f.Duration); ideal.After(now) {
				departure = ideal
				arrival = aim
			}
			late = arrival.After(*d.TargetArrival)
		}
		leave := arrival.Add(d.Dwell)

		leg := newLeg(f, prev, d.Name, weather)
		leg.Departure = departure
		leg.Arrival = arrival
		leg.Leave = &leave
		leg.Dwell = d.Dwell
		leg.LateForTarget = late
		plan.Legs = append(plan.Legs, leg)

		if !in.WindowEnd.IsZero() && arrival.After(in.WindowEnd) {
			plan.OverTime = append(plan.OverTime, d.Name)
		}

		plan.TotalTime += f.Duration + d.Dwell
		plan.DistanceKm += f.DistanceKm
		plan.Cost += f.Cost
		now = leave
		prev = d.Name
	}

	f := est.Estimate(prev, in.End)
	closing := newLeg(f, prev, in.End, weather)
	closing.Departure = now
	closing.Arrival = now.Add(f.Duration)
	plan.Legs = append(plan.Legs, closing)

	plan.TotalTime += f.Duration
	plan.DistanceKm += f.DistanceKm
	plan.Cost += f.Cost

	return plan
}

func newLeg(f TravelFactors, from, to string, weather WeatherSource) Leg {
	leg := Leg{
		From:       from,
		To:         to,
		FromCoord:  f.From.Coordinate,
		ToCoord:    f.To.Coordinate,
		Duration:   f.Duration,
		DistanceKm: f.DistanceKm,
	}
	if weather != nil {
		w := weather.WeatherAt(to)
		leg.Weather = &w
	}
	return leg
}
