package planner

import (
	"math"
	"slices"

	"github.com/vanroute/vanroute/internal/candidate"
)

// Category names one of a plan's lists.
type Category string

const (
	CategoryStops     Category = "stops"
	CategoryEvents    Category = "events"
	CategoryOvernight Category = "overnight"
)

// Kind is the candidate kind the category holds.
func (c Category) Kind() (candidate.Kind, bool) {
	switch c {
	case CategoryStops:
		return candidate.KindPOI, true
	case CategoryEvents:
		return candidate.KindEvent, true
	case CategoryOvernight:
		return candidate.KindOvernight, true
	}
	return "", false
}

// Mutations never modify their input: each returns an updated copy of the plan.

// ReplaceItem puts c at index in the category's list and recomputes TotalKm.
func ReplaceItem(plan DayPlan, category Category, index int, c candidate.Candidate) (DayPlan, error) {
	kind, ok := category.Kind()
	if !ok {
		return DayPlan{}, invalid("category", "unknown category %q", category)
	}
	if c.Kind != kind {
		return DayPlan{}, ErrKindMismatch
	}
	if err := checkCandidate(&c); err != nil {
		return DayPlan{}, err
	}

	out := plan.clone()
	list := out.list(category)
	if index < 0 || index >= len(*list) {
		return DayPlan{}, invalid("index", "%d is outside %s (len %d)", index, category, len(*list))
	}
	if (*list)[index].ID != c.ID && out.holds(c.ID) {
		return DayPlan{}, ErrDuplicateItem
	}

	(*list)[index] = c
	out.TotalKm = out.TotalDetourKm()
	return out, nil
}

// RemoveItem drops the candidate with id from the category's list and
// recomputes TotalKm. Emptying a list is allowed.
func RemoveItem(plan DayPlan, category Category, id string) (DayPlan, error) {
	if _, ok := category.Kind(); !ok {
		return DayPlan{}, invalid("category", "unknown category %q", category)
	}

	out := plan.clone()
	list := out.list(category)
	i := slices.IndexFunc(*list, func(c candidate.Candidate) bool { return c.ID == id })
	if i < 0 {
		return DayPlan{}, ErrItemNotFound
	}

	*list = slices.Delete(*list, i, i+1)
	if category == CategoryOvernight && len(out.Overnight) == 0 {
		out.OvernightConfirmed = false
	}
	out.TotalKm = out.TotalDetourKm()
	return out, nil
}

// ConfirmOvernight collapses the overnight alternatives to the chosen one.
// Confirming the already confirmed spot is a no-op.
func ConfirmOvernight(plan DayPlan, id string) (DayPlan, error) {
	i := slices.IndexFunc(plan.Overnight, func(c candidate.Candidate) bool { return c.ID == id })
	if i < 0 {
		return DayPlan{}, ErrItemNotFound
	}

	out := plan.clone()
	out.Overnight = []candidate.Candidate{plan.Overnight[i]}
	out.OvernightConfirmed = true
	return out, nil
}

// checkCandidate enforces the rules normalization guarantees, for candidates
// that reach the engine from elsewhere.
func checkCandidate(c *candidate.Candidate) error {
	if c.ID == "" {
		return invalid("candidate.id", "required")
	}
	if err := c.Coordinates.Validate(); err != nil {
		return invalid("candidate.coordinates", "%v", err)
	}
	if !finiteNonNegative(c.DistanceKm) {
		return invalid("candidate.distanceKm", "must be a non-negative number, got %v", c.DistanceKm)
	}
	if !finiteNonNegative(c.DetourKm) {
		return invalid("candidate.detourKm", "must be a non-negative number, got %v", c.DetourKm)
	}
	if c.Kind == candidate.KindEvent {
		if c.TimeWindow == nil {
			return invalid("candidate.timeWindow", "events need a time window")
		}
		if c.TimeWindow.End.Before(c.TimeWindow.Start) {
			return invalid("candidate.timeWindow", "end is before start")
		}
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func (p *DayPlan) clone() DayPlan {
	out := *p
	out.Stops = slices.Clone(p.Stops)
	out.Events = slices.Clone(p.Events)
	out.Overnight = slices.Clone(p.Overnight)
	if out.Stops == nil {
		out.Stops = []candidate.Candidate{}
	}
	if out.Events == nil {
		out.Events = []candidate.Candidate{}
	}
	if out.Overnight == nil {
		out.Overnight = []candidate.Candidate{}
	}
	return out
}

func (p *DayPlan) list(category Category) *[]candidate.Candidate {
	switch category {
	case CategoryEvents:
		return &p.Events
	case CategoryOvernight:
		return &p.Overnight
	default:
		return &p.Stops
	}
}

func (p *DayPlan) holds(id string) bool {
	has := func(c candidate.Candidate) bool { return c.ID == id }
	return slices.ContainsFunc(p.Stops, has) ||
		slices.ContainsFunc(p.Events, has) ||
		slices.ContainsFunc(p.Overnight, has)
}
