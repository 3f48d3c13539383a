package planner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/geo"
	"github.com/vanroute/vanroute/internal/planner"
)

var now = time.Date(2026, 6, 12, 9, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *planner.Engine {
	t.Helper()
	e, err := planner.New(planner.DefaultConfig())
	require.NoError(t, err)
	return e
}

func ptr[T any](v T) *T { return &v }

func poi(id string, distanceKm, detourKm float64, tags ...string) candidate.Candidate {
	return candidate.Candidate{
		ID:         id,
		Kind:       candidate.KindPOI,
		DistanceKm: distanceKm,
		DetourKm:   detourKm,
		PriceTier:  candidate.PriceUnknown,
		Tags:       candidate.NormalizeTags(tags),
	}
}

func event(id string, distanceKm, detourKm float64, start, end time.Time) candidate.Candidate {
	return candidate.Candidate{
		ID:         id,
		Kind:       candidate.KindEvent,
		DistanceKm: distanceKm,
		DetourKm:   detourKm,
		PriceTier:  candidate.PriceUnknown,
		TimeWindow: &candidate.TimeWindow{Start: start, End: end},
	}
}

func overnight(id string, distanceKm float64) candidate.Candidate {
	return candidate.Candidate{
		ID:         id,
		Kind:       candidate.KindOvernight,
		DistanceKm: distanceKm,
		PriceTier:  candidate.PriceUnknown,
	}
}

func at(c candidate.Candidate, lat, lng float64) candidate.Candidate {
	c.Coordinates = geo.Coordinates{Lat: lat, Lng: lng}
	return c
}

func ids(cands []candidate.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}
