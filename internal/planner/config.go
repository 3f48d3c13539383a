// Package planner turns a position, a driving budget, user preferences and a
// pool of candidates into day plans and multi-day waypoint sequences.
//
// Everything in this package is pure: no I/O, no clocks, no shared mutable
// state. An Engine can be used from many goroutines at once.
package planner

import (
	"fmt"
	"math"
	"time"
)

// Weights are the relative contributions of each sub-score.
// They are normalized by their sum, so they need not add up to 1.
type Weights struct {
	Interest float64 `koanf:"interest"`
	Rating   float64 `koanf:"rating"`
	Distance float64 `koanf:"distance"`
	Price    float64 `koanf:"price"`
	Urgency  float64 `koanf:"urgency"`
}

func (w Weights) sum() float64 {
	return w.Interest + w.Rating + w.Distance + w.Price + w.Urgency
}

// ClassifierConfig holds the envelope brackets. Each bound is inclusive.
type ClassifierConfig struct {
	// LocalOnlyMaxKm: envelopes up to here produce only a ZERO plan.
	LocalOnlyMaxKm float64 `koanf:"local_only_max_km"`
	// NearbyMaxKm: envelopes up to here produce ZERO then EXPLORATION.
	NearbyMaxKm float64 `koanf:"nearby_max_km"`
	// RegionalMaxKm: envelopes up to here produce EXPLORATION then ZERO.
	// Anything larger produces EXPLORATION then TRANSIT.
	RegionalMaxKm float64 `koanf:"regional_max_km"`
}

// AssemblyConfig controls candidate filtering and per-plan caps.
type AssemblyConfig struct {
	ZeroRadiusKm             float64 `koanf:"zero_radius_km"`
	TransitDetourToleranceKm float64 `koanf:"transit_detour_tolerance_km"`

	ZeroStopCap        int `koanf:"zero_stop_cap"`
	ExplorationStopCap int `koanf:"exploration_stop_cap"`
	TransitStopCap     int `koanf:"transit_stop_cap"`

	SlowPaceStopCap     int `koanf:"slow_pace_stop_cap"`
	ModeratePaceStopCap int `koanf:"moderate_pace_stop_cap"`
	FastPaceStopCap     int `koanf:"fast_pace_stop_cap"`

	EventCap     int `koanf:"event_cap"`
	OvernightCap int `koanf:"overnight_cap"`
}

// ScoringConfig holds the scorer constants other than the weights.
type ScoringConfig struct {
	Weights Weights `koanf:"weights"`

	// OverBudgetScore is the price sub-score for candidates above the ceiling.
	OverBudgetScore float64 `koanf:"over_budget_score"`

	// UrgencyWindow: events running now or starting within it score 1.
	UrgencyWindow time.Duration `koanf:"urgency_window"`
	// UrgencyHorizon: events starting this far out or later score 0.
	UrgencyHorizon time.Duration `koanf:"urgency_horizon"`
}

// WaypointConfig holds waypoint suggestion defaults.
type WaypointConfig struct {
	// DefaultMaxDistanceKm applies when a request leaves the corridor width unset.
	DefaultMaxDistanceKm float64 `koanf:"default_max_distance_km"`
	MaxStopCount         int     `koanf:"max_stop_count"`
}

// FeasibilityConfig holds the pace thresholds.
type FeasibilityConfig struct {
	AvgSpeedKmh            float64 `koanf:"avg_speed_kmh"`
	ComfortableHoursPerDay float64 `koanf:"comfortable_hours_per_day"`
	TightHoursPerDay       float64 `koanf:"tight_hours_per_day"`
}

// Config is the complete set of engine constants.
type Config struct {
	Scoring     ScoringConfig     `koanf:"scoring"`
	Classifier  ClassifierConfig  `koanf:"classifier"`
	Assembly    AssemblyConfig    `koanf:"assembly"`
	Waypoints   WaypointConfig    `koanf:"waypoints"`
	Feasibility FeasibilityConfig `koanf:"feasibility"`
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		Scoring: ScoringConfig{
			Weights: Weights{
				Interest: 0.35,
				Rating:   0.20,
				Distance: 0.25,
				Price:    0.10,
				Urgency:  0.10,
			},
			OverBudgetScore: 0.3,
			UrgencyWindow:   24 * time.Hour,
			UrgencyHorizon:  7 * 24 * time.Hour,
		},
		Classifier: ClassifierConfig{
			LocalOnlyMaxKm: 20,
			NearbyMaxKm:    150,
			RegionalMaxKm:  400,
		},
		Assembly: AssemblyConfig{
			ZeroRadiusKm:             20,
			TransitDetourToleranceKm: 60,
			ZeroStopCap:              5,
			ExplorationStopCap:       5,
			TransitStopCap:           3,
			SlowPaceStopCap:          3,
			ModeratePaceStopCap:      4,
			FastPaceStopCap:          5,
			EventCap:                 3,
			OvernightCap:             5,
		},
		Waypoints: WaypointConfig{
			DefaultMaxDistanceKm: 50,
			MaxStopCount:         30,
		},
		Feasibility: FeasibilityConfig{
			AvgSpeedKmh:            80,
			ComfortableHoursPerDay: 4,
			TightHoursPerDay:       7,
		},
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	w := c.Scoring.Weights
	for name, v := range map[string]float64{
		"interest": w.Interest, "rating": w.Rating, "distance": w.Distance,
		"price": w.Price, "urgency": w.Urgency,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("scoring weight %s must be non-negative, got %v", name, v)
		}
	}
	if w.sum() <= 0 {
		return fmt.Errorf("scoring weights must not all be zero")
	}
	if c.Scoring.OverBudgetScore < 0 || c.Scoring.OverBudgetScore > 1 {
		return fmt.Errorf("over budget score must be within [0,1], got %v", c.Scoring.OverBudgetScore)
	}
	if c.Scoring.UrgencyWindow < 0 || c.Scoring.UrgencyHorizon <= c.Scoring.UrgencyWindow {
		return fmt.Errorf("urgency horizon (%s) must exceed urgency window (%s)",
			c.Scoring.UrgencyHorizon, c.Scoring.UrgencyWindow)
	}

	cl := c.Classifier
	if cl.LocalOnlyMaxKm < 0 || cl.NearbyMaxKm < cl.LocalOnlyMaxKm || cl.RegionalMaxKm < cl.NearbyMaxKm {
		return fmt.Errorf("classifier brackets must be non-negative and ascending, got %v/%v/%v",
			cl.LocalOnlyMaxKm, cl.NearbyMaxKm, cl.RegionalMaxKm)
	}

	a := c.Assembly
	if a.ZeroRadiusKm < 0 || a.TransitDetourToleranceKm < 0 {
		return fmt.Errorf("assembly radii must be non-negative")
	}
	for name, v := range map[string]int{
		"zero_stop_cap": a.ZeroStopCap, "exploration_stop_cap": a.ExplorationStopCap,
		"transit_stop_cap": a.TransitStopCap, "slow_pace_stop_cap": a.SlowPaceStopCap,
		"moderate_pace_stop_cap": a.ModeratePaceStopCap, "fast_pace_stop_cap": a.FastPaceStopCap,
		"event_cap": a.EventCap, "overnight_cap": a.OvernightCap,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, v)
		}
	}

	if c.Waypoints.DefaultMaxDistanceKm <= 0 || c.Waypoints.MaxStopCount <= 0 {
		return fmt.Errorf("waypoint defaults must be positive")
	}

	f := c.Feasibility
	if f.AvgSpeedKmh <= 0 {
		return fmt.Errorf("average speed must be positive, got %v", f.AvgSpeedKmh)
	}
	if f.ComfortableHoursPerDay <= 0 || f.TightHoursPerDay < f.ComfortableHoursPerDay {
		return fmt.Errorf("feasibility thresholds must be positive and ascending, got %v/%v",
			f.ComfortableHoursPerDay, f.TightHoursPerDay)
	}
	return nil
}
