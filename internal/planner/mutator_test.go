package planner_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/planner"
)

func samplePlan() planner.DayPlan {
	plan := planner.DayPlan{
		ID:        "plan_exploration",
		Archetype: planner.ArchetypeExploration,
		Stops:     []candidate.Candidate{poi("s1", 5, 3), poi("s2", 8, 4)},
		Events:    []candidate.Candidate{event("e1", 6, 2, now, now.Add(time.Hour))},
		Overnight: []candidate.Candidate{overnight("o1", 10), overnight("o2", 12), overnight("o3", 15)},
	}
	plan.TotalKm = plan.TotalDetourKm()
	return plan
}

func TestConfirmOvernight_CollapsesAlternatives(t *testing.T) {
	plan := samplePlan()

	confirmed, err := planner.ConfirmOvernight(plan, "o2")
	require.NoError(t, err)
	require.Len(t, confirmed.Overnight, 1)
	assert.Equal(t, "o2", confirmed.Overnight[0].ID)
	assert.True(t, confirmed.OvernightConfirmed)

	again, err := planner.ConfirmOvernight(confirmed, "o2")
	require.NoError(t, err)
	assert.Equal(t, confirmed, again)

	assert.Len(t, plan.Overnight, 3, "input plan is untouched")
	assert.False(t, plan.OvernightConfirmed)
}

func TestConfirmOvernight_UnknownID(t *testing.T) {
	_, err := planner.ConfirmOvernight(samplePlan(), "s1")
	assert.ErrorIs(t, err, planner.ErrItemNotFound)
}

func TestRemoveItem_LastStop(t *testing.T) {
	plan := samplePlan()

	plan, err := planner.RemoveItem(plan, planner.CategoryStops, "s1")
	require.NoError(t, err)
	assert.InDelta(t, 6.0, plan.TotalKm, 1e-12)

	plan, err = planner.RemoveItem(plan, planner.CategoryStops, "s2")
	require.NoError(t, err)
	assert.NotNil(t, plan.Stops)
	assert.Empty(t, plan.Stops)
	assert.InDelta(t, 2.0, plan.TotalKm, 1e-12)

	_, err = planner.RemoveItem(plan, planner.CategoryStops, "s2")
	assert.ErrorIs(t, err, planner.ErrItemNotFound)
}

func TestRemoveItem_ConfirmedOvernight(t *testing.T) {
	plan, err := planner.ConfirmOvernight(samplePlan(), "o1")
	require.NoError(t, err)

	plan, err = planner.RemoveItem(plan, planner.CategoryOvernight, "o1")
	require.NoError(t, err)
	assert.Empty(t, plan.Overnight)
	assert.False(t, plan.OvernightConfirmed)
}

func TestRemoveItem_UnknownCategory(t *testing.T) {
	_, err := planner.RemoveItem(samplePlan(), planner.Category("meals"), "s1")
	assert.ErrorIs(t, err, planner.ErrInvalidInput)
}

func TestReplaceItem(t *testing.T) {
	plan := samplePlan()

	updated, err := planner.ReplaceItem(plan, planner.CategoryStops, 1, poi("s9", 3, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s9"}, ids(updated.Stops))
	assert.InDelta(t, 15.0, updated.TotalKm, 1e-12)
	assert.Equal(t, []string{"s1", "s2"}, ids(plan.Stops), "input plan is untouched")

	same, err := planner.ReplaceItem(plan, planner.CategoryStops, 0, poi("s1", 5, 1))
	require.NoError(t, err)
	assert.InDelta(t, 7.0, same.TotalKm, 1e-12)
}

func TestReplaceItem_Rejections(t *testing.T) {
	plan := samplePlan()

	_, err := planner.ReplaceItem(plan, planner.CategoryStops, 0, overnight("o9", 1))
	assert.ErrorIs(t, err, planner.ErrKindMismatch)

	_, err = planner.ReplaceItem(plan, planner.CategoryOvernight, 0, poi("p", 1, 0))
	assert.ErrorIs(t, err, planner.ErrKindMismatch)

	_, err = planner.ReplaceItem(plan, planner.CategoryStops, 0, poi("s2", 1, 0))
	assert.ErrorIs(t, err, planner.ErrDuplicateItem)

	_, err = planner.ReplaceItem(plan, planner.CategoryEvents, 3, event("e9", 1, 0, now, now))
	var inputErr *planner.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "index", inputErr.Field)

	_, err = planner.ReplaceItem(plan, planner.CategoryStops, -1, poi("p", 1, 0))
	assert.ErrorIs(t, err, planner.ErrInvalidInput)
}

func TestReplaceItem_RejectsMalformedCandidates(t *testing.T) {
	plan := samplePlan()

	noWindow := event("e9", 1, 0, now, now)
	noWindow.TimeWindow = nil
	backwards := event("e9", 1, 0, now, now.Add(-time.Hour))

	tests := []struct {
		name     string
		category planner.Category
		cand     candidate.Candidate
		field    string
	}{
		{"event without window", planner.CategoryEvents, noWindow, "candidate.timeWindow"},
		{"event ending before start", planner.CategoryEvents, backwards, "candidate.timeWindow"},
		{"negative detour", planner.CategoryStops, poi("p", 1, -50), "candidate.detourKm"},
		{"negative distance", planner.CategoryStops, poi("p", -1, 0), "candidate.distanceKm"},
		{"infinite detour", planner.CategoryStops, poi("p", 1, math.Inf(1)), "candidate.detourKm"},
		{"NaN distance", planner.CategoryStops, poi("p", math.NaN(), 0), "candidate.distanceKm"},
		{"missing id", planner.CategoryStops, poi("", 1, 0), "candidate.id"},
		{"bad coordinates", planner.CategoryStops, at(poi("p", 1, 0), 91, 0), "candidate.coordinates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := planner.ReplaceItem(plan, tt.category, 0, tt.cand)

			var inputErr *planner.InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.field, inputErr.Field)
			assert.ErrorIs(t, err, planner.ErrInvalidInput)
			assert.Empty(t, out.ID)
		})
	}

	// The original plan is untouched.
	assert.InDelta(t, 9.0, plan.TotalKm, 1e-9)
}
