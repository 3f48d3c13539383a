package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/geo"
)

// PlanRequest is the input to GeneratePlans.
type PlanRequest struct {
	Position    geo.Coordinates
	EnvelopeKm  float64
	Destination *geo.Coordinates
	Preferences *Preferences
	// Candidates must already be normalized against Position.
	Candidates []candidate.Candidate
	Now        time.Time
}

// Engine is the facade over the classifier, assembler, waypoint suggester
// and feasibility evaluator.
type Engine struct {
	cfg       Config
	scorer    Scorer
	assembler Assembler
}

// New creates an engine after validating cfg.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("planner config: %w", err)
	}
	scorer := NewScorer(cfg.Scoring)
	return &Engine{
		cfg:       cfg,
		scorer:    scorer,
		assembler: NewAssembler(cfg.Assembly, scorer),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Classify returns the archetypes for an envelope.
func (e *Engine) Classify(envelopeKm float64) ([]Archetype, error) {
	return Classify(envelopeKm, e.cfg.Classifier)
}

// GeneratePlans classifies the envelope and assembles one plan per archetype,
// primary archetype first. Candidates without a detour get one estimated
// from straight-line distances.
func (e *Engine) GeneratePlans(req PlanRequest) ([]DayPlan, error) {
	if err := validatePoint("position", req.Position); err != nil {
		return nil, err
	}
	if req.Destination != nil {
		if err := validatePoint("destination", *req.Destination); err != nil {
			return nil, err
		}
	}
	if err := req.Preferences.Validate(); err != nil {
		return nil, err
	}
	archetypes, err := e.Classify(req.EnvelopeKm)
	if err != nil {
		return nil, err
	}

	cands := withDetours(req.Candidates, req.Position, req.Destination)
	sc := ScoreContext{EnvelopeKm: req.EnvelopeKm, Now: req.Now}

	plans := make([]DayPlan, 0, len(archetypes))
	for _, a := range archetypes {
		plans = append(plans, e.assembler.Assemble(cands, a, req.Preferences, sc))
	}
	return plans, nil
}

// Assemble builds a single plan for an archetype.
func (e *Engine) Assemble(cands []candidate.Candidate, archetype Archetype, prefs *Preferences, sc ScoreContext) DayPlan {
	return e.assembler.Assemble(cands, archetype, prefs, sc)
}

// SuggestWaypoints picks up to StopCount evenly spaced stops between Start
// and End. Fewer stops than requested is a valid result.
func (e *Engine) SuggestWaypoints(req WaypointRequest) (WaypointSequence, error) {
	if err := validatePoint("start", req.Start); err != nil {
		return WaypointSequence{}, err
	}
	if err := validatePoint("end", req.End); err != nil {
		return WaypointSequence{}, err
	}
	if req.StopCount < 0 || req.StopCount > e.cfg.Waypoints.MaxStopCount {
		return WaypointSequence{}, invalid("stopCount", "must be within [0,%d], got %d",
			e.cfg.Waypoints.MaxStopCount, req.StopCount)
	}
	if math.IsNaN(req.MaxDistanceKm) || req.MaxDistanceKm < 0 {
		return WaypointSequence{}, invalid("maxDistanceKm", "must be non-negative, got %v", req.MaxDistanceKm)
	}
	if err := req.Preferences.Validate(); err != nil {
		return WaypointSequence{}, err
	}

	maxDistance := req.MaxDistanceKm
	if maxDistance == 0 {
		maxDistance = e.cfg.Waypoints.DefaultMaxDistanceKm
	}
	return suggestWaypoints(req, e.scorer, maxDistance), nil
}

// EvaluateFeasibility rates a trip at the configured average speed.
func (e *Engine) EvaluateFeasibility(totalKm float64, days int) (FeasibilityVerdict, error) {
	return evaluateFeasibility(totalKm, days, e.cfg.Feasibility.AvgSpeedKmh, e.cfg.Feasibility)
}

// EvaluateFeasibilityAt rates a trip at a caller-chosen average speed.
func (e *Engine) EvaluateFeasibilityAt(totalKm float64, days int, avgSpeedKmh float64) (FeasibilityVerdict, error) {
	return evaluateFeasibility(totalKm, days, avgSpeedKmh, e.cfg.Feasibility)
}

func validatePoint(field string, c geo.Coordinates) error {
	if err := c.Validate(); err != nil {
		return invalid(field, "%v", err)
	}
	return nil
}

// withDetours returns a copy of cands where every missing detour is
// estimated: via the destination when there is one, otherwise as an out
// and back trip from the position.
func withDetours(cands []candidate.Candidate, pos geo.Coordinates, dest *geo.Coordinates) []candidate.Candidate {
	out := make([]candidate.Candidate, len(cands))
	copy(out, cands)

	var direct float64
	if dest != nil {
		direct = geo.DistanceKm(pos, *dest)
	}
	for i := range out {
		c := &out[i]
		if c.DetourKm > 0 || c.Kind == candidate.KindOvernight {
			continue
		}
		if dest == nil {
			c.DetourKm = 2 * geo.DistanceKm(pos, c.Coordinates)
			continue
		}
		c.DetourKm = math.Max(0, geo.DistanceKm(pos, c.Coordinates)+geo.DistanceKm(c.Coordinates, *dest)-direct)
	}
	return out
}
