package itinerary

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights are the tunable parameters of the desirability score.
type Weights struct {
	// Spatial sub-score penalties; they should sum to 1.
	SpatialDistance float64 `yaml:"spatial_distance"`
	SpatialWalk     float64 `yaml:"spatial_walk"`
	SpatialLights   float64 `yaml:"spatial_lights"`

	// Traffic sub-score.
	TrafficExpedite float64 `yaml:"traffic_expedite"`
	TrafficFlow     float64 `yaml:"traffic_flow"`

	// Service sub-score.
	ServiceRating     float64 `yaml:"service_rating"`
	ServicePopularity float64 `yaml:"service_popularity"`

	// Combination of the three sub-scores.
	CombinedSpatial float64 `yaml:"combined_spatial"`
	CombinedTraffic float64 `yaml:"combined_traffic"`
	CombinedService float64 `yaml:"combined_service"`

	// Final blend of the combined score and priority.
	Desirability float64 `yaml:"desirability"`
	Priority     float64 `yaml:"priority"`

	// Normalization caps.
	DistanceCapKm float64 `yaml:"distance_cap_km"`
	WalkCapKm     float64 `yaml:"walk_cap_km"`
	LightsCap     float64 `yaml:"lights_cap"`
	RatingCap     float64 `yaml:"rating_cap"`
	PopularityCap float64 `yaml:"popularity_cap"`
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		SpatialDistance:   0.4,
		SpatialWalk:       0.3,
		SpatialLights:     0.3,
		TrafficExpedite:   0.6,
		TrafficFlow:       0.4,
		ServiceRating:     0.7,
		ServicePopularity: 0.3,
		CombinedSpatial:   0.3,
		CombinedTraffic:   0.3,
		CombinedService:   0.4,
		Desirability:      0.7,
		Priority:          0.3,
		DistanceCapKm:     10,
		WalkCapKm:         2,
		LightsCap:         10,
		RatingCap:         5,
		PopularityCap:     1000,
	}
}

// LoadWeights reads weights from a YAML file. Keys missing from the file keep their
// default values.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read weights file: %w", err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return DefaultWeights(), fmt.Errorf("parse weights file: %w", err)
	}
	return w, nil
}

// SpatialScore rewards short, easy legs. Result is in [0,1].
func SpatialScore(f TravelFactors, w Weights) float64 {
	s := 1 -
		w.SpatialDistance*ratio(f.DistanceKm, w.DistanceCapKm) -
		w.SpatialWalk*ratio(f.WalkDistanceKm, w.WalkCapKm) -
		w.SpatialLights*ratio(float64(f.TrafficLights), w.LightsCap)
	return clamp01(s)
}

// TrafficScore rewards free-flowing legs. Result is in [0,1].
func TrafficScore(f TravelFactors, w Weights) float64 {
	return clamp01(w.TrafficExpedite*f.ExpediteRatio + w.TrafficFlow*(1-f.CongestedRatio))
}

// ServiceScore rewards well-rated, popular destinations. Result is in [0,1].
func ServiceScore(f TravelFactors, w Weights) float64 {
	return clamp01(w.ServiceRating*ratio(f.Rating, w.RatingCap) +
		w.ServicePopularity*ratio(float64(f.Popularity), w.PopularityCap))
}

// Score combines the sub-scores of a leg with the priority (1-5) of the destination
// it arrives at. Priority contributes up to w.Priority of the total. Result is in [0,1].
func Score(f TravelFactors, priority int, w Weights) float64 {
	combined := w.CombinedSpatial*SpatialScore(f, w) +
		w.CombinedTraffic*TrafficScore(f, w) +
		w.CombinedService*ServiceScore(f, w)

	p := float64(clampPriority(priority)) / MaxPriority
	return clamp01(w.Desirability*combined + w.Priority*p)
}

// ratio returns min(v/limit, 1), or 0 when limit is not positive.
func ratio(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Min(v/limit, 1)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}
