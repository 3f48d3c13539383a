package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/planner"
)

func TestEvaluateFeasibility(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name        string
		km          float64
		days        int
		level       planner.FeasibilityLevel
		hoursPerDay float64
	}{
		{"relaxed week", 1000, 5, planner.FeasibilityComfortable, 2.5},
		{"exactly four hours a day", 1600, 5, planner.FeasibilityComfortable, 4},
		{"just over comfortable", 1604, 5, planner.FeasibilityTight, 4.01},
		{"exactly seven hours a day", 2800, 5, planner.FeasibilityTight, 7},
		{"too much driving", 3500, 5, planner.FeasibilityTooAmbitious, 8.75},
		{"no driving", 0, 3, planner.FeasibilityComfortable, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := e.EvaluateFeasibility(tt.km, tt.days)
			require.NoError(t, err)
			assert.Equal(t, tt.level, v.Level)
			assert.InDelta(t, tt.hoursPerDay, v.HoursPerDay, 1e-9)
			assert.InDelta(t, tt.km/80, v.EstimatedHours, 1e-9)
			assert.Equal(t, 80.0, v.AvgSpeedKmh)
		})
	}
}

func TestEvaluateFeasibilityAt_SpeedOverride(t *testing.T) {
	e := newEngine(t)

	v, err := e.EvaluateFeasibilityAt(3500, 5, 100)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, v.HoursPerDay, 1e-9)
	assert.Equal(t, planner.FeasibilityTight, v.Level)
}

func TestEvaluateFeasibility_InvalidInput(t *testing.T) {
	e := newEngine(t)

	_, err := e.EvaluateFeasibility(1000, 0)
	assert.ErrorIs(t, err, planner.ErrInvalidInput)

	_, err = e.EvaluateFeasibility(1000, -2)
	assert.ErrorIs(t, err, planner.ErrInvalidInput)

	_, err = e.EvaluateFeasibility(-1, 2)
	assert.ErrorIs(t, err, planner.ErrInvalidInput)

	_, err = e.EvaluateFeasibilityAt(100, 2, 0)
	var inputErr *planner.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "avgSpeedKmh", inputErr.Field)
}
