package geo

import "math"

// Corridor is the straight great-circle path between a trip's start and end.
type Corridor struct {
	Start Coordinates
	End   Coordinates

	lengthKm float64
	bearing  float64
}

// NewCorridor builds a corridor between start and end.
func NewCorridor(start, end Coordinates) Corridor {
	return Corridor{
		Start:    start,
		End:      end,
		lengthKm: DistanceKm(start, end),
		bearing:  Bearing(start, end),
	}
}

// LengthKm is the direct start to end distance.
func (c Corridor) LengthKm() float64 {
	return c.lengthKm
}

// Project returns how far along the corridor p lies (signed, negative when p is
// behind the start) and its perpendicular offset from the corridor, both in km.
func (c Corridor) Project(p Coordinates) (alongKm, offsetKm float64) {
	d13 := DistanceKm(c.Start, p)
	if d13 == 0 {
		return 0, 0
	}
	if c.lengthKm == 0 {
		return 0, d13
	}

	angular := d13 / EarthRadiusKm
	delta := degToRad(Bearing(c.Start, p) - c.bearing)

	cross := math.Asin(clampUnit(math.Sin(angular) * math.Sin(delta)))
	along := math.Acos(clampUnit(math.Cos(angular) / math.Cos(cross)))
	if math.Cos(delta) < 0 {
		along = -along
	}

	return along * EarthRadiusKm, math.Abs(cross) * EarthRadiusKm
}

// DetourKm is the extra distance of going start -> p -> end instead of start -> end.
func (c Corridor) DetourKm(p Coordinates) float64 {
	extra := DistanceKm(c.Start, p) + DistanceKm(p, c.End) - c.lengthKm
	if extra < 0 {
		return 0
	}
	return extra
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
