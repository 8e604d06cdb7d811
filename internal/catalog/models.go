// Package catalog stores the known places that location names resolve against
// and that nearby-place recommendations are drawn from.
package catalog

import (
	"errors"

	"github.com/google/uuid"

	"github.com/tripwise/tripwise/internal/geo"
)

// Catalog errors.
var (
	ErrPlaceNotFound = errors.New("place not found")
	ErrInvalidPlace  = errors.New("invalid place")
)

// Place is a named point of interest.
type Place struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Category   string  `yaml:"category"`
	Lat        float64 `yaml:"lat"`
	Lon        float64 `yaml:"lon"`
	Rating     float64 `yaml:"rating"`
	Popularity int     `yaml:"popularity"`

	// AvgDwellMinutes is the typical time spent at the place.
	AvgDwellMinutes int `yaml:"avg_dwell_minutes"`
}

// NewPlaceID generates a place identifier.
func NewPlaceID() string {
	return "plc_" + uuid.New().String()[:12]
}

// Coordinate returns the place position.
func (p *Place) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
}

// Validate checks required fields.
func (p *Place) Validate() error {
	if p.Name == "" {
		return errors.Join(ErrInvalidPlace, errors.New("name is required"))
	}
	if err := p.Coordinate().Validate(); err != nil {
		return errors.Join(ErrInvalidPlace, err)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return errors.Join(ErrInvalidPlace, errors.New("rating must be between 0 and 5"))
	}
	return nil
}

// Location converts the place into a resolvable geo.Location.
func (p *Place) Location() geo.Location {
	return geo.Location{
		Name:       p.Name,
		Category:   p.Category,
		Coordinate: p.Coordinate(),
		Rating:     p.Rating,
		Popularity: p.Popularity,
	}
}

// Gazetteer builds a resolver over the given places.
func Gazetteer(places []*Place) *geo.Gazetteer {
	locations := make([]geo.Location, 0, len(places))
	for _, p := range places {
		locations = append(locations, p.Location())
	}
	return geo.NewGazetteer(locations)
}
