// Package polyline implements Google's encoded polyline algorithm:
// https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"fmt"
	"math"

	"github.com/vanroute/vanroute/internal/geo"
)

// DefaultPrecision is the number of decimal places used by Google Maps and
// most map SDKs. Some routers (OSRM, Valhalla) use 6.
const DefaultPrecision = 5

// ErrMalformed is returned for input that ends mid-value or contains
// characters outside the encoding alphabet.
var ErrMalformed = errors.New("malformed polyline")

// Encode encodes a path at DefaultPrecision.
func Encode(path []geo.Coordinates) string {
	return EncodeWithPrecision(path, DefaultPrecision)
}

// EncodeWithPrecision encodes a path keeping precision decimal places.
func EncodeWithPrecision(path []geo.Coordinates, precision int) string {
	if len(path) == 0 {
		return ""
	}
	factor := math.Pow10(precision)

	buf := make([]byte, 0, len(path)*8)
	var prevLat, prevLng int64
	for _, c := range path {
		lat := int64(math.Round(c.Lat * factor))
		lng := int64(math.Round(c.Lng * factor))
		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return string(buf)
}

// Decode decodes a path encoded at DefaultPrecision.
func Decode(encoded string) ([]geo.Coordinates, error) {
	return DecodeWithPrecision(encoded, DefaultPrecision)
}

// DecodeWithPrecision decodes a path encoded with precision decimal places.
func DecodeWithPrecision(encoded string, precision int) ([]geo.Coordinates, error) {
	if encoded == "" {
		return nil, nil
	}
	factor := math.Pow10(precision)

	var (
		path     []geo.Coordinates
		lat, lng int64
		i        int
	)
	for i < len(encoded) {
		dLat, next, err := readValue(encoded, i)
		if err != nil {
			return nil, err
		}
		dLng, next, err := readValue(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next
		lat += dLat
		lng += dLng
		path = append(path, geo.Coordinates{
			Lat: float64(lat) / factor,
			Lng: float64(lng) / factor,
		})
	}
	return path, nil
}

func readValue(encoded string, i int) (int64, int, error) {
	var result int64
	shift := uint(0)
	for {
		if i >= len(encoded) {
			return 0, i, fmt.Errorf("%w: truncated at offset %d", ErrMalformed, i)
		}
		b := int64(encoded[i]) - 63
		if b < 0 || b > 0x3f {
			return 0, i, fmt.Errorf("%w: invalid character %q at offset %d", ErrMalformed, encoded[i], i)
		}
		i++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
		if shift > 60 {
			return 0, i, fmt.Errorf("%w: value overflows at offset %d", ErrMalformed, i)
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}

func appendValue(buf []byte, v int64) []byte {
	if v < 0 {
		v = ^(v << 1)
	} else {
		v <<= 1
	}
	for v >= 0x20 {
		buf = append(buf, byte((v&0x1f)|0x20)+63)
		v >>= 5
	}
	return append(buf, byte(v)+63)
}
