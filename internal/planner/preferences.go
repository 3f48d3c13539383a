package planner

import (
	"github.com/vanroute/vanroute/internal/candidate"
)

// Pace is how many stops a traveller wants in a day.
type Pace string

const (
	PaceSlow     Pace = "SLOW"
	PaceModerate Pace = "MODERATE"
	PaceFast     Pace = "FAST"
)

// Valid reports whether p is a known pace. The empty pace is valid and means unset.
func (p Pace) Valid() bool {
	switch p {
	case "", PaceSlow, PaceModerate, PaceFast:
		return true
	}
	return false
}

// Preferences is an immutable snapshot of what the traveller likes.
// A nil *Preferences scores everything neutrally.
type Preferences struct {
	Interests    []string `json:"interests,omitempty"`
	Environments []string `json:"environments,omitempty"`
	Pace         Pace     `json:"pace,omitempty"`
	// BudgetCeiling is the most expensive acceptable tier. UNKNOWN or empty means no ceiling.
	BudgetCeiling candidate.PriceTier `json:"budgetCeiling,omitempty"`
	Vehicle       *candidate.Vehicle  `json:"vehicle,omitempty"`
}

// Validate checks enumerated fields.
func (p *Preferences) Validate() error {
	if p == nil {
		return nil
	}
	if !p.Pace.Valid() {
		return invalid("preferences.pace", "unknown pace %q", p.Pace)
	}
	switch p.BudgetCeiling {
	case "", candidate.PriceUnknown, candidate.PriceFree, candidate.PriceLow, candidate.PriceMedium, candidate.PriceHigh:
	default:
		return invalid("preferences.budgetCeiling", "unknown price tier %q", p.BudgetCeiling)
	}
	if v := p.Vehicle; v != nil && (v.LengthM < 0 || v.HeightM < 0 || v.WeightT < 0) {
		return invalid("preferences.vehicle", "dimensions must be non-negative")
	}
	return nil
}

// interestSet is the union of interests and environments as normalized tags.
func (p *Preferences) interestSet() map[string]struct{} {
	if p == nil {
		return nil
	}
	tags := candidate.NormalizeTags(append(append([]string(nil), p.Interests...), p.Environments...))
	if len(tags) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

func (p *Preferences) vehicle() *candidate.Vehicle {
	if p == nil {
		return nil
	}
	return p.Vehicle
}

func (p *Preferences) pace() Pace {
	if p == nil {
		return ""
	}
	return p.Pace
}
