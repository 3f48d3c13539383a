package planner_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/geo"
	"github.com/vanroute/vanroute/internal/planner"
)

var (
	home = geo.Coordinates{Lat: 0, Lng: 0}
	away = geo.Coordinates{Lat: 0, Lng: 5}
)

func normalized(t *testing.T, raws ...candidate.RawRecord) []candidate.Candidate {
	t.Helper()
	res := candidate.NormalizeAll(raws, home)
	require.Zero(t, res.Skipped)
	return res.Candidates
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := planner.DefaultConfig()
	cfg.Scoring.Weights = planner.Weights{}
	_, err := planner.New(cfg)
	assert.Error(t, err)

	cfg = planner.DefaultConfig()
	cfg.Classifier.NearbyMaxKm = 10
	_, err = planner.New(cfg)
	assert.Error(t, err)

	cfg = planner.DefaultConfig()
	cfg.Feasibility.AvgSpeedKmh = 0
	_, err = planner.New(cfg)
	assert.Error(t, err)
}

func TestGeneratePlans_SmallEnvelopeIsLocalOnly(t *testing.T) {
	e := newEngine(t)
	plans, err := e.GeneratePlans(planner.PlanRequest{
		Position:   home,
		EnvelopeKm: 15,
		Candidates: normalized(t,
			candidate.RawRecord{ID: "cafe", Lat: ptr(0.0), Lng: ptr(0.05)},
		),
	})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, planner.ArchetypeZero, plans[0].Archetype)
	assert.Equal(t, "Stay local", plans[0].Label)
	require.Len(t, plans[0].Stops, 1)

	// Out and back without a destination.
	assert.InDelta(t, 2*plans[0].Stops[0].DistanceKm, plans[0].TotalKm, 1e-9)
}

func TestGeneratePlans_LongEnvelopeWithDestination(t *testing.T) {
	e := newEngine(t)
	plans, err := e.GeneratePlans(planner.PlanRequest{
		Position:    home,
		EnvelopeKm:  500,
		Destination: &away,
		Candidates: normalized(t,
			candidate.RawRecord{ID: "on-the-way", Lat: ptr(0.0), Lng: ptr(2.5)},
			candidate.RawRecord{ID: "detour", Lat: ptr(1.5), Lng: ptr(2.5)},
			candidate.RawRecord{ID: "camp", SourceType: "CAMPSITE", Lat: ptr(0.0), Lng: ptr(4.0)},
		),
	})
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, planner.ArchetypeExploration, plans[0].Archetype)
	assert.Equal(t, planner.ArchetypeTransit, plans[1].Archetype)

	transit := plans[1]
	assert.Equal(t, []string{"on-the-way"}, ids(transit.Stops), "large detours are not transit stops")
	assert.InDelta(t, 0, transit.TotalKm, 1e-6)
	assert.Equal(t, []string{"camp"}, ids(transit.Overnight))

	exploration := plans[0]
	assert.ElementsMatch(t, []string{"on-the-way", "detour"}, ids(exploration.Stops))
	assert.InDelta(t, exploration.TotalDetourKm(), exploration.TotalKm, 1e-9)
}

func TestGeneratePlans_KeepsProvidedDetours(t *testing.T) {
	e := newEngine(t)
	cands := normalized(t, candidate.RawRecord{ID: "a", Lat: ptr(0.0), Lng: ptr(0.05), DetourKm: ptr(1.25)})

	plans, err := e.GeneratePlans(planner.PlanRequest{Position: home, EnvelopeKm: 10, Candidates: cands})
	require.NoError(t, err)
	assert.InDelta(t, 1.25, plans[0].TotalKm, 1e-12)
	assert.Zero(t, cands[0].DetourKm-1.25, "input candidates are not modified")
}

func TestGeneratePlans_InvalidInput(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name  string
		req   planner.PlanRequest
		field string
	}{
		{"bad position", planner.PlanRequest{Position: geo.Coordinates{Lat: 91}, EnvelopeKm: 10}, "position"},
		{"bad destination", planner.PlanRequest{Position: home, EnvelopeKm: 10, Destination: &geo.Coordinates{Lng: -190}}, "destination"},
		{"negative envelope", planner.PlanRequest{Position: home, EnvelopeKm: -5}, "envelopeKm"},
		{"unknown pace", planner.PlanRequest{Position: home, EnvelopeKm: 10, Preferences: &planner.Preferences{Pace: "SPRINT"}}, "preferences.pace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.GeneratePlans(tt.req)
			var inputErr *planner.InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}

func TestGeneratePlans_NothingNearbyIsNotAnError(t *testing.T) {
	e := newEngine(t)
	plans, err := e.GeneratePlans(planner.PlanRequest{Position: home, EnvelopeKm: 100})
	require.NoError(t, err)
	require.Len(t, plans, 2)
	for _, p := range plans {
		assert.True(t, p.Empty())
		assert.Zero(t, p.TotalKm)
	}
}

func TestGeneratePlans_DeterministicAndConcurrent(t *testing.T) {
	e := newEngine(t)
	req := planner.PlanRequest{
		Position:   home,
		EnvelopeKm: 120,
		Candidates: normalized(t,
			candidate.RawRecord{ID: "a", Lat: ptr(0.1), Lng: ptr(0.1), Tags: []string{"x"}},
			candidate.RawRecord{ID: "b", Lat: ptr(0.1), Lng: ptr(-0.1), Tags: []string{"x"}},
			candidate.RawRecord{ID: "c", Lat: ptr(-0.2), Lng: ptr(0.3), Rating: ptr(4.5)},
		),
		Preferences: &planner.Preferences{Interests: []string{"x"}},
	}
	want, err := e.GeneratePlans(req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.GeneratePlans(req)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
