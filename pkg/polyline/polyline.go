// Package polyline implements the encoded polyline format used by Google Maps and
// most routing engines: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"math"
	"strings"
)

// Precision is the number of decimal places kept by Encode.
const Precision = 5

var factor = math.Pow10(Precision)

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Encode encodes a path. Consecutive points are stored as deltas.
func Encode(path []Coordinate) string {
	if len(path) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(path) * 8)

	var prevLat, prevLon int64
	for _, c := range path {
		lat := int64(math.Round(c.Lat * factor))
		lon := int64(math.Round(c.Lon * factor))
		writeValue(&b, lat-prevLat)
		writeValue(&b, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return b.String()
}

// Length returns the great-circle length of a path in kilometres.
func Length(path []Coordinate) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += haversineKm(path[i-1], path[i])
	}
	return total
}

func writeValue(b *strings.Builder, v int64) {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		b.WriteByte(byte(0x20|(u&0x1f)) + 63)
		u >>= 5
	}
	b.WriteByte(byte(u) + 63)
}

const earthRadiusKm = 6371.0

func haversineKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
