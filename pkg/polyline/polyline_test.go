package polyline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripwise/tripwise/pkg/polyline"
)

// Reference path from the format documentation.
var referencePath = []polyline.Coordinate{
	{Lat: 38.5, Lon: -120.2},
	{Lat: 40.7, Lon: -120.95},
	{Lat: 43.252, Lon: -126.453},
}

const referenceEncoded = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func TestEncode(t *testing.T) {
	assert.Equal(t, referenceEncoded, polyline.Encode(referencePath))
	assert.Empty(t, polyline.Encode(nil))
}

func TestEncode_RoundsToPrecision(t *testing.T) {
	exact := polyline.Encode([]polyline.Coordinate{{Lat: 12.97599, Lon: 77.60573}})
	noisy := polyline.Encode([]polyline.Coordinate{{Lat: 12.975991, Lon: 77.605729}})
	assert.Equal(t, exact, noisy)
}

func TestEncode_RepeatedPoint(t *testing.T) {
	// A zero delta encodes as "?" for each axis.
	p := polyline.Coordinate{Lat: 12.97599, Lon: 77.60573}
	single := polyline.Encode([]polyline.Coordinate{p})
	assert.Equal(t, single+"??", polyline.Encode([]polyline.Coordinate{p, p}))
}

func TestLength(t *testing.T) {
	assert.Zero(t, polyline.Length(nil))
	assert.Zero(t, polyline.Length(referencePath[:1]))

	// One degree of latitude is about 111.2 km.
	km := polyline.Length([]polyline.Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}})
	assert.InDelta(t, 111.19, km, 0.05)

	// MG Road to Cubbon Park and back.
	loop := []polyline.Coordinate{
		{Lat: 12.9756, Lon: 77.6047},
		{Lat: 12.9763, Lon: 77.5929},
		{Lat: 12.9756, Lon: 77.6047},
	}
	assert.InDelta(t, 2*polyline.Length(loop[:2]), polyline.Length(loop), 1e-9)
}
