package polyline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/geo"
)

// googleExample is the worked example from the algorithm's documentation.
var googleExample = []geo.Coordinates{
	{Lat: 38.5, Lng: -120.2},
	{Lat: 40.7, Lng: -120.95},
	{Lat: 43.252, Lng: -126.453},
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		path     []geo.Coordinates
		expected string
	}{
		{"empty", nil, ""},
		{"single point", googleExample[:1], "_p~iF~ps|U"},
		{"two points", googleExample[:2], "_p~iF~ps|U_ulLnnqC"},
		{"documentation example", googleExample, "_p~iF~ps|U_ulLnnqC_mqNvxq`@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Encode(tt.path))
		})
	}
}

func TestDecode(t *testing.T) {
	path, err := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, path, len(googleExample))
	for i := range path {
		assertNear(t, googleExample[i], path[i], 1e-5)
	}

	path, err = Decode("")
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"truncated latitude", "_p~i"},
		{"missing longitude", "_p~iF"},
		{"character below alphabet", "_p~iF~ps|U "},
		{"character above alphabet", "_p~iF~ps|U\x7f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.encoded)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestRoundTrip_WaypointPath(t *testing.T) {
	// Amsterdam, Utrecht, Den Bosch, Eindhoven.
	path := []geo.Coordinates{
		{Lat: 52.37403, Lng: 4.88969},
		{Lat: 52.09074, Lng: 5.12142},
		{Lat: 51.69781, Lng: 5.30367},
		{Lat: 51.44164, Lng: 5.46972},
	}

	decoded, err := Decode(Encode(path))
	require.NoError(t, err)
	require.Len(t, decoded, len(path))
	for i := range path {
		assertNear(t, path[i], decoded[i], 1e-5)
	}
}

func TestRoundTrip_Precision6(t *testing.T) {
	path := []geo.Coordinates{
		{Lat: -33.868820, Lng: 151.209295},
		{Lat: -33.856784, Lng: 151.215297},
	}

	decoded, err := DecodeWithPrecision(EncodeWithPrecision(path, 6), 6)
	require.NoError(t, err)
	for i := range path {
		assertNear(t, path[i], decoded[i], 1e-6)
	}
}

func assertNear(t *testing.T, want, got geo.Coordinates, tol float64) {
	t.Helper()
	assert.True(t, math.Abs(want.Lat-got.Lat) <= tol && math.Abs(want.Lng-got.Lng) <= tol,
		"expected %+v, got %+v", want, got)
}

func BenchmarkEncode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Encode(googleExample)
	}
}
