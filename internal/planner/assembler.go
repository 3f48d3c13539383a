package planner

import (
	"strings"
	"time"

	"github.com/vanroute/vanroute/internal/candidate"
)

// DayPlan is one proposed day.
type DayPlan struct {
	ID        string    `json:"id"`
	Archetype Archetype `json:"archetype"`
	Label     string    `json:"label"`
	// TotalKm is the summed detour of stops and events. Overnights end the
	// day and are not counted.
	TotalKm   float64               `json:"totalKm"`
	Stops     []candidate.Candidate `json:"stops"`
	Events    []candidate.Candidate `json:"events"`
	Overnight []candidate.Candidate `json:"overnight"`
	// OvernightConfirmed is set once the traveller picked one overnight spot.
	OvernightConfirmed bool `json:"overnightConfirmed"`
}

// PlanID is the deterministic ID of the plan generated for an archetype.
func PlanID(a Archetype) string {
	return "plan_" + strings.ToLower(string(a))
}

// TotalDetourKm sums the detours of the plan's stops and events.
func (p *DayPlan) TotalDetourKm() float64 {
	total := 0.0
	for i := range p.Stops {
		total += p.Stops[i].DetourKm
	}
	for i := range p.Events {
		total += p.Events[i].DetourKm
	}
	return total
}

// Empty reports whether the plan holds nothing at all.
func (p *DayPlan) Empty() bool {
	return len(p.Stops) == 0 && len(p.Events) == 0 && len(p.Overnight) == 0
}

// Assembler builds one DayPlan per archetype from a candidate pool.
type Assembler struct {
	cfg    AssemblyConfig
	scorer Scorer
}

// NewAssembler creates an assembler.
func NewAssembler(cfg AssemblyConfig, scorer Scorer) Assembler {
	return Assembler{cfg: cfg, scorer: scorer}
}

// Assemble filters, scores and selects candidates into a plan. A pool with
// nothing suitable yields a valid plan with empty lists.
func (a Assembler) Assemble(cands []candidate.Candidate, archetype Archetype, prefs *Preferences, sc ScoreContext) DayPlan {
	plan := DayPlan{
		ID:        PlanID(archetype),
		Archetype: archetype,
		Label:     archetype.Label(),
		Stops:     []candidate.Candidate{},
		Events:    []candidate.Candidate{},
		Overnight: []candidate.Candidate{},
	}

	reach := a.reachKm(archetype, sc.EnvelopeKm)
	scoreCtx := ScoreContext{EnvelopeKm: reach, Now: sc.Now}

	var stops, events, overnights []candidate.Candidate
	for _, c := range cands {
		if !a.admits(&c, archetype, reach, prefs, sc.Now) {
			continue
		}
		switch c.Kind {
		case candidate.KindPOI:
			stops = append(stops, c)
		case candidate.KindEvent:
			events = append(events, c)
		case candidate.KindOvernight:
			overnights = append(overnights, c)
		}
	}

	plan.Stops = selectDiverse(a.scorer.Rank(stops, prefs, scoreCtx), a.stopCap(archetype, prefs.pace()))
	plan.Events = selectTop(a.scorer.Rank(events, prefs, scoreCtx), a.cfg.EventCap)
	plan.Overnight = selectTop(a.scorer.Rank(overnights, prefs, scoreCtx), a.cfg.OvernightCap)
	plan.TotalKm = plan.TotalDetourKm()
	return plan
}

// reachKm is how far from the position a candidate may be for the archetype.
func (a Assembler) reachKm(archetype Archetype, envelopeKm float64) float64 {
	if archetype == ArchetypeZero {
		return a.cfg.ZeroRadiusKm
	}
	return envelopeKm
}

func (a Assembler) admits(c *candidate.Candidate, archetype Archetype, reach float64, prefs *Preferences, now time.Time) bool {
	if checkCandidate(c) != nil || c.DistanceKm > reach {
		return false
	}
	if archetype == ArchetypeTransit && c.Kind != candidate.KindOvernight && c.DetourKm > a.cfg.TransitDetourToleranceKm {
		return false
	}
	switch c.Kind {
	case candidate.KindEvent:
		if !now.IsZero() && now.After(c.TimeWindow.End) {
			return false
		}
	case candidate.KindOvernight:
		return c.AdmitsVehicle(prefs.vehicle())
	}
	return true
}

// stopCap is the archetype cap, further limited by the traveller's pace.
func (a Assembler) stopCap(archetype Archetype, pace Pace) int {
	limit := a.cfg.ExplorationStopCap
	switch archetype {
	case ArchetypeZero:
		limit = a.cfg.ZeroStopCap
	case ArchetypeTransit:
		limit = a.cfg.TransitStopCap
	}

	paceLimit := -1
	switch pace {
	case PaceSlow:
		paceLimit = a.cfg.SlowPaceStopCap
	case PaceModerate:
		paceLimit = a.cfg.ModeratePaceStopCap
	case PaceFast:
		paceLimit = a.cfg.FastPaceStopCap
	}
	if paceLimit >= 0 && paceLimit < limit {
		return paceLimit
	}
	return limit
}

func selectTop(ranked []Scored, limit int) []candidate.Candidate {
	out := make([]candidate.Candidate, 0, min(limit, len(ranked)))
	for _, s := range ranked {
		if len(out) >= limit {
			break
		}
		out = append(out, s.Candidate)
	}
	return out
}

// selectDiverse takes the best candidates in order, skipping any whose tag
// set is identical to one already taken.
func selectDiverse(ranked []Scored, limit int) []candidate.Candidate {
	out := make([]candidate.Candidate, 0, min(limit, len(ranked)))
	for _, s := range ranked {
		if len(out) >= limit {
			break
		}
		if nearDuplicate(&s.Candidate, out) {
			continue
		}
		out = append(out, s.Candidate)
	}
	return out
}

func nearDuplicate(c *candidate.Candidate, picked []candidate.Candidate) bool {
	for i := range picked {
		if c.SameTags(&picked[i]) {
			return true
		}
	}
	return false
}
