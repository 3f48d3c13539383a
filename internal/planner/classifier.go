package planner

import "math"

// Archetype is a day-plan category describing its driving intensity.
type Archetype string

const (
	// ArchetypeZero stays local: little or no driving.
	ArchetypeZero Archetype = "ZERO"
	// ArchetypeExploration uses the day's envelope to see the region.
	ArchetypeExploration Archetype = "EXPLORATION"
	// ArchetypeTransit covers ground towards the next area with few stops.
	ArchetypeTransit Archetype = "TRANSIT"
)

// Label is the human-readable plan title for the archetype.
func (a Archetype) Label() string {
	switch a {
	case ArchetypeZero:
		return "Stay local"
	case ArchetypeExploration:
		return "Explore the area"
	case ArchetypeTransit:
		return "Cover ground"
	}
	return string(a)
}

// Classify maps a driving envelope to the archetypes to generate, primary
// first. Brackets are inclusive on their upper bound.
func Classify(envelopeKm float64, cfg ClassifierConfig) ([]Archetype, error) {
	if math.IsNaN(envelopeKm) || math.IsInf(envelopeKm, 0) || envelopeKm < 0 {
		return nil, invalid("envelopeKm", "must be a non-negative number, got %v", envelopeKm)
	}
	switch {
	case envelopeKm <= cfg.LocalOnlyMaxKm:
		return []Archetype{ArchetypeZero}, nil
	case envelopeKm <= cfg.NearbyMaxKm:
		return []Archetype{ArchetypeZero, ArchetypeExploration}, nil
	case envelopeKm <= cfg.RegionalMaxKm:
		return []Archetype{ArchetypeExploration, ArchetypeZero}, nil
	default:
		return []Archetype{ArchetypeExploration, ArchetypeTransit}, nil
	}
}
