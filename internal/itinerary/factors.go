package itinerary

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/tripwise/tripwise/internal/geo"
)

// Estimator produces travel factors for a directed leg between two named locations.
// A routing backend can implement it to replace the synthesized estimates.
type Estimator interface {
	Estimate(from, to string) TravelFactors
}

// ModeProfile holds the speed and fare used to synthesize a leg for one travel mode.
type ModeProfile struct {
	SpeedMps  float64
	BaseFare  float64
	FarePerKm float64
}

// ModeProfiles are the per-mode estimation parameters.
var ModeProfiles = map[Mode]ModeProfile{
	ModeWalking:   {SpeedMps: 1.4},
	ModeBicycling: {SpeedMps: 4.16, BaseFare: 0, FarePerKm: 1},
	ModeTransit:   {SpeedMps: 8.33, BaseFare: 10, FarePerKm: 2},
	ModeDriving:   {SpeedMps: 12.5, BaseFare: 40, FarePerKm: 15},
}

// MinLegDuration is the shortest duration a synthesized leg can have.
const MinLegDuration = 60 * time.Second

// Synthesizer estimates travel factors from great-circle distance plus bounded,
// seeded randomness. The randomness for each ordered (from, to) pair is derived from
// the seed and the pair, so a pair always yields the same factors for a given seed.
// It is safe for concurrent use.
type Synthesizer struct {
	resolver geo.Resolver
	mode     Mode
	profile  ModeProfile
	seed     int64
}

// NewSynthesizer creates a synthesizer. Unknown modes fall back to driving.
func NewSynthesizer(resolver geo.Resolver, mode Mode, seed int64) *Synthesizer {
	profile, ok := ModeProfiles[mode]
	if !ok {
		mode = ModeDriving
		profile = ModeProfiles[ModeDriving]
	}
	if resolver == nil {
		resolver = geo.NewGazetteer(nil)
	}
	return &Synthesizer{
		resolver: resolver,
		mode:     mode,
		profile:  profile,
		seed:     seed,
	}
}

// Mode returns the travel mode the synthesizer estimates for.
func (s *Synthesizer) Mode() Mode {
	return s.mode
}

// Estimate returns the travel factors for the leg from -> to. It never fails: unknown
// names are placed at the fallback coordinate.
func (s *Synthesizer) Estimate(from, to string) TravelFactors {
	fromLoc := s.resolver.Resolve(from)
	toLoc := s.resolver.Resolve(to)
	rng := s.pairRand("leg", from, to)

	dist := geo.Haversine(fromLoc.Coordinate, toLoc.Coordinate)

	f := TravelFactors{
		From:       fromLoc,
		To:         toLoc,
		DistanceKm: dist,
	}

	f.WalkDistanceKm = math.Min(dist, 0.1+0.4*rng.Float64())
	f.TrafficLights = int(math.Round(dist * (0.5 + 1.5*rng.Float64())))

	expedite := 0.2 + rng.Float64()
	slow := 0.1 + 0.5*rng.Float64()
	congested := 0.05 + 0.5*rng.Float64()
	unknown := 0.05 * rng.Float64()
	total := expedite + slow + congested + unknown
	f.ExpediteRatio = expedite / total
	f.SlowRatio = slow / total
	f.CongestedRatio = congested / total
	f.UnknownRatio = unknown / total

	seconds := dist * 1000 / s.profile.SpeedMps
	seconds *= 1 + 0.5*f.SlowRatio + 1.0*f.CongestedRatio
	f.Duration = time.Duration(math.Round(seconds)) * time.Second
	if f.Duration < MinLegDuration {
		f.Duration = MinLegDuration
	}

	f.Cost = s.profile.BaseFare + s.profile.FarePerKm*dist

	rating := 3.5 + 1.5*rng.Float64()
	popularity := 100 + rng.Intn(900)
	if toLoc.Rating > 0 {
		rating = toLoc.Rating
	}
	if toLoc.Popularity > 0 {
		popularity = toLoc.Popularity
	}
	f.Rating = rating
	f.Popularity = popularity

	return f
}

var weatherConditions = []string{"Clear", "Clouds", "Rain", "Thunderstorm", "Drizzle"}

// WeatherAt returns a synthesized weather snapshot for a location.
func (s *Synthesizer) WeatherAt(name string) Weather {
	rng := s.pairRand("weather", name, "")

	w := Weather{
		Condition:    weatherConditions[rng.Intn(len(weatherConditions))],
		TemperatureC: math.Round((20+12*rng.Float64())*10) / 10,
		WindSpeed:    math.Round((0.5+4.5*rng.Float64())*10) / 10,
	}
	rain := math.Round((0.1+9.9*rng.Float64())*10) / 10
	if w.Condition != "Clear" && w.Condition != "Clouds" {
		w.RainMm = rain
	}
	return w
}

// pairRand returns a generator seeded from the synthesizer seed and the key parts.
func (s *Synthesizer) pairRand(kind, a, b string) *rand.Rand {
	h := fnv.New64a()
	for _, part := range []string{kind, string(s.mode), strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	//nolint:gosec // estimates, not security-sensitive
	return rand.New(rand.NewSource(s.seed ^ int64(h.Sum64())))
}
