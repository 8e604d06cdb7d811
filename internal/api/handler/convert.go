package handler

import (
	"math"
	"time"

	"github.com/tripwise/tripwise/internal/api/models"
	"github.com/tripwise/tripwise/internal/catalog"
	"github.com/tripwise/tripwise/internal/geo"
	"github.com/tripwise/tripwise/internal/itinerary"
	"github.com/tripwise/tripwise/pkg/polyline"
)

func toOptimizeResponse(res *itinerary.Result) models.OptimizeResponse {
	resp := models.OptimizeResponse{
		Source:         string(res.Source),
		Seed:           res.Seed,
		Mode:           string(res.Mode),
		OriginalRoute:  toDestinations(res.OriginalRoute),
		OptimizedRoute: toDestinations(res.OptimizedRoute),
		Dropped:        toDestinations(res.Dropped),
		UserPlan:       toPlan(res.UserPlan),
		OptimizedPlan:  toPlan(res.OptimizedPlan),
		Metrics: models.Metrics{
			TotalDistanceKm:  round2(res.Metrics.TotalDistanceKm),
			TotalTime:        itinerary.FormatDuration(res.Metrics.TotalTime),
			TotalMinutes:     minutes(res.Metrics.TotalTime),
			TimeSaved:        itinerary.FormatDuration(res.Metrics.TimeSaved),
			TimeSavedMinutes: minutes(res.Metrics.TimeSaved),
			CostSaved:        round2(res.Metrics.CostSaved),
			DroppedPOIs:      nonNil(res.Metrics.DroppedPOIs),
			DroppedCount:     res.Metrics.DroppedCount,
		},
	}
	if res.AlternativePlan != nil {
		alt := toPlan(*res.AlternativePlan)
		resp.AlternativePlan = &alt
	}
	return resp
}

func toDestinations(ds []itinerary.Destination) []models.Destination {
	out := make([]models.Destination, 0, len(ds))
	for _, d := range ds {
		md := models.Destination{
			ID:           d.ID,
			Name:         d.Name,
			Category:     d.Category,
			Priority:     d.Priority,
			DwellMinutes: minutes(d.Dwell),
			Note:         d.Note,
		}
		if d.TargetArrival != nil {
			md.TargetArrival = itinerary.ClockTime(*d.TargetArrival)
		}
		out = append(out, md)
	}
	return out
}

func toPlan(p itinerary.Plan) models.Plan {
	plan := models.Plan{
		Sequence:     names(p.Sequence),
		Dropped:      names(p.Dropped),
		TotalTime:    itinerary.FormatDuration(p.TotalTime),
		TotalMinutes: minutes(p.TotalTime),
		DistanceKm:   round2(p.DistanceKm),
		Cost:         round2(p.Cost),
		OverTime:     p.OverTime,
		Legs:         make([]models.Leg, 0, len(p.Legs)),
	}
	if len(plan.Dropped) == 0 {
		plan.Dropped = nil
	}

	path := make([]polyline.Coordinate, 0, len(p.Legs)+1)
	for i, l := range p.Legs {
		if i == 0 {
			path = append(path, polyline.Coordinate{Lat: l.FromCoord.Lat, Lon: l.FromCoord.Lon})
		}
		path = append(path, polyline.Coordinate{Lat: l.ToCoord.Lat, Lon: l.ToCoord.Lon})
		plan.Legs = append(plan.Legs, toLeg(l))
	}
	plan.Polyline = polyline.Encode(path)
	plan.StraightLineKm = round2(polyline.Length(path))
	return plan
}

func toLeg(l itinerary.Leg) models.Leg {
	leg := models.Leg{
		From:          l.From,
		To:            l.To,
		FromPoint:     toPoint(l.FromCoord),
		ToPoint:       toPoint(l.ToCoord),
		Departure:     itinerary.ClockTime(l.Departure),
		Arrival:       itinerary.ClockTime(l.Arrival),
		TravelTime:    itinerary.FormatDuration(l.Duration),
		TravelMinutes: minutes(l.Duration),
		DwellMinutes:  minutes(l.Dwell),
		DistanceKm:    round2(l.DistanceKm),
		LateForTarget: l.LateForTarget,
	}
	if l.Leave != nil {
		leg.Leave = itinerary.ClockTime(*l.Leave)
	}
	if l.Weather != nil {
		leg.Weather = &models.Weather{
			Condition:    l.Weather.Condition,
			TemperatureC: l.Weather.TemperatureC,
			WindSpeed:    l.Weather.WindSpeed,
			RainMm:       l.Weather.RainMm,
		}
	}
	return leg
}

func toRecommendation(r itinerary.Recommendation) models.Recommendation {
	return models.Recommendation{
		Name:          r.Location.Name,
		Category:      r.Location.Category,
		Point:         toPoint(r.Location.Coordinate),
		Score:         math.Round(r.Score*1000) / 1000,
		DistanceKm:    round2(r.DistanceKm),
		DetourMinutes: minutes(r.Detour),
		PriceTier:     r.PriceTier,
		OnRoute:       r.OnRoute,
		Rating:        r.Location.Rating,
	}
}

func toPlace(p *catalog.Place) models.Place {
	return models.Place{
		ID:              p.ID,
		Name:            p.Name,
		Category:        p.Category,
		Point:           models.Point{Lat: p.Lat, Lon: p.Lon},
		Rating:          p.Rating,
		Popularity:      p.Popularity,
		AvgDwellMinutes: p.AvgDwellMinutes,
	}
}

func toPoint(c geo.Coordinate) models.Point {
	return models.Point{Lat: c.Lat, Lon: c.Lon}
}

func names(ds []itinerary.Destination) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
