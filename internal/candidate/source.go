package candidate

import (
	"context"
	"errors"

	"github.com/vanroute/vanroute/internal/geo"
)

// ErrSourceUnavailable is returned when no configured source could answer.
var ErrSourceUnavailable = errors.New("candidate source unavailable")

// DefaultLimit caps the records a source returns for one query.
const DefaultLimit = 500

// Area selects records within RadiusKm of Center.
type Area struct {
	Center   geo.Coordinates
	RadiusKm float64
	Limit    int
}

// CorridorArea selects records within BufferKm of the straight line Start to End.
type CorridorArea struct {
	Start    geo.Coordinates
	End      geo.Coordinates
	BufferKm float64
	Limit    int
}

// Source supplies raw candidate records.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// Nearby returns records around a point.
	Nearby(ctx context.Context, area Area) ([]RawRecord, error)

	// AlongCorridor returns records near a straight start to end line.
	AlongCorridor(ctx context.Context, corridor CorridorArea) ([]RawRecord, error)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
