// Package weather provides current conditions at trip locations, with a grid-cell
// cache in front of an external provider.
package weather

import (
	"errors"
	"time"

	"github.com/tripwise/tripwise/internal/geo"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Observation is the current weather at a point.
type Observation struct {
	Coordinate geo.Coordinate

	// Temperature in Celsius
	Temperature float64

	WindSpeed float64 // m/s

	// RainMm is precipitation over the last hour; 0 when the provider reports none.
	RainMm float64

	Condition   Condition
	Description string

	ObservedAt time.Time
	FetchedAt  time.Time
}

// Condition is the general weather condition, named as OpenWeatherMap groups them.
type Condition string

const (
	ConditionClear        Condition = "Clear"
	ConditionClouds       Condition = "Clouds"
	ConditionRain         Condition = "Rain"
	ConditionDrizzle      Condition = "Drizzle"
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionSnow         Condition = "Snow"
	ConditionMist         Condition = "Mist"
	ConditionFog          Condition = "Fog"
	ConditionHaze         Condition = "Haze"
	ConditionUnknown      Condition = "Unknown"
)
