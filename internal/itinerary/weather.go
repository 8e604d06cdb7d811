package itinerary

import (
	"context"
	"math"

	"github.com/tripwise/tripwise/internal/geo"
	"github.com/tripwise/tripwise/internal/weather"
)

// LiveWeather reports current conditions at a coordinate.
type LiveWeather interface {
	Current(ctx context.Context, at geo.Coordinate) (*weather.Observation, error)
}

// applyLiveWeather replaces leg weather with current conditions at each arrival point.
// A leg keeps its existing weather when its lookup fails. Remote legs that already
// carry weather are left alone.
func (s *Service) applyLiveWeather(ctx context.Context, res *Result) {
	if s.weather == nil || s.flags.IsLiveWeatherDisabled(ctx) {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.weatherTimeout)
	defer cancel()

	plans := []*Plan{&res.UserPlan, &res.OptimizedPlan}
	if res.AlternativePlan != nil {
		plans = append(plans, res.AlternativePlan)
	}

	var (
		updated int
		failed  int
		lastErr error
	)
	for _, p := range plans {
		for i := range p.Legs {
			leg := &p.Legs[i]
			if res.Source == SourceRemote && leg.Weather != nil {
				continue
			}
			obs, err := s.weather.Current(ctx, leg.ToCoord)
			if err != nil {
				failed++
				lastErr = err
				continue
			}
			leg.Weather = fromObservation(obs)
			updated++
		}
	}

	if failed > 0 {
		s.logger.Warn().
			Err(lastErr).
			Int("failed_legs", failed).
			Int("updated_legs", updated).
			Msg("live weather unavailable for some legs")
	}
}

func fromObservation(obs *weather.Observation) *Weather {
	return &Weather{
		Condition:    string(obs.Condition),
		TemperatureC: math.Round(obs.Temperature*10) / 10,
		WindSpeed:    math.Round(obs.WindSpeed*10) / 10,
		RainMm:       math.Round(obs.RainMm*10) / 10,
	}
}
