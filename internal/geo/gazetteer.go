package geo

import (
	"sort"
	"strings"
)

// FallbackCoordinate is substituted for any location name that cannot be resolved.
var FallbackCoordinate = Coordinate{Lat: 12.9756, Lon: 77.6047}

// Location is a named, resolved point.
type Location struct {
	Name       string
	Category   string
	Coordinate Coordinate

	// Rating and Popularity describe the place when it comes from the catalog.
	// Both are zero for unknown locations.
	Rating     float64
	Popularity int

	// Fallback is true when the name was not found and FallbackCoordinate was used.
	Fallback bool
}

// Resolver maps location names to coordinates.
type Resolver interface {
	Resolve(name string) Location
}

// Gazetteer is an immutable, in-memory Resolver built from a list of known locations.
// It is safe for concurrent use.
type Gazetteer struct {
	byName map[string]Location
	names  []string
}

// NewGazetteer creates a gazetteer from the given locations. Later entries with the
// same (case-insensitive) name replace earlier ones.
func NewGazetteer(locations []Location) *Gazetteer {
	g := &Gazetteer{byName: make(map[string]Location, len(locations))}
	for _, loc := range locations {
		key := normalize(loc.Name)
		if key == "" {
			continue
		}
		loc.Fallback = false
		g.byName[key] = loc
	}

	g.names = make([]string, 0, len(g.byName))
	for key := range g.byName {
		g.names = append(g.names, key)
	}
	sort.Strings(g.names)

	return g
}

// Resolve returns the location for name. An exact case-insensitive match wins,
// then the first known name (in lexical order) containing name as a substring.
// Unknown names resolve to FallbackCoordinate and never fail.
func (g *Gazetteer) Resolve(name string) Location {
	key := normalize(name)
	if g != nil && key != "" {
		if loc, ok := g.byName[key]; ok {
			return loc
		}
		for _, known := range g.names {
			if strings.Contains(known, key) {
				return g.byName[known]
			}
		}
	}

	return Location{
		Name:       name,
		Coordinate: FallbackCoordinate,
		Fallback:   true,
	}
}

// Len returns the number of known locations.
func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return len(g.byName)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
