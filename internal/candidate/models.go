// Package candidate normalizes location and event records into plan candidates
// and provides the sources those records are fetched from.
package candidate

import (
	"slices"
	"strings"
	"time"

	"github.com/vanroute/vanroute/internal/geo"
)

// Kind classifies what a candidate can be used for in a plan.
type Kind string

const (
	// KindPOI is a static place to visit.
	KindPOI Kind = "POI"
	// KindOvernight is a place to sleep, the only kind allowed in a plan's overnight slot.
	KindOvernight Kind = "OVERNIGHT"
	// KindEvent is a time-bound happening.
	KindEvent Kind = "EVENT"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPOI, KindOvernight, KindEvent:
		return true
	}
	return false
}

// PriceTier is a coarse price bracket.
type PriceTier string

const (
	PriceFree    PriceTier = "FREE"
	PriceLow     PriceTier = "LOW"
	PriceMedium  PriceTier = "MEDIUM"
	PriceHigh    PriceTier = "HIGH"
	PriceUnknown PriceTier = "UNKNOWN"
)

// Rank orders tiers from cheapest (0) to most expensive (3).
// Unknown tiers return -1.
func (p PriceTier) Rank() int {
	switch p {
	case PriceFree:
		return 0
	case PriceLow:
		return 1
	case PriceMedium:
		return 2
	case PriceHigh:
		return 3
	default:
		return -1
	}
}

// Known reports whether the tier carries price information.
func (p PriceTier) Known() bool {
	return p.Rank() >= 0
}

// TimeWindow is the period during which an event takes place.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, bounds included.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// VehicleLimits are the maximum vehicle dimensions an overnight spot accepts.
// Zero means no limit for that dimension.
type VehicleLimits struct {
	MaxLengthM float64 `json:"maxLengthM,omitempty"`
	MaxHeightM float64 `json:"maxHeightM,omitempty"`
	MaxWeightT float64 `json:"maxWeightT,omitempty"`
}

// Vehicle describes the traveller's vehicle.
type Vehicle struct {
	LengthM float64 `json:"lengthM,omitempty"`
	HeightM float64 `json:"heightM,omitempty"`
	WeightT float64 `json:"weightT,omitempty"`
}

// Admits reports whether the vehicle fits within the limits.
func (l VehicleLimits) Admits(v Vehicle) bool {
	if l.MaxLengthM > 0 && v.LengthM > l.MaxLengthM {
		return false
	}
	if l.MaxHeightM > 0 && v.HeightM > l.MaxHeightM {
		return false
	}
	if l.MaxWeightT > 0 && v.WeightT > l.MaxWeightT {
		return false
	}
	return true
}

// Candidate is a location or event eligible for inclusion in a plan.
type Candidate struct {
	ID            string          `json:"id"`
	Name          string          `json:"name,omitempty"`
	Kind          Kind            `json:"kind"`
	SourceType    string          `json:"sourceType,omitempty"`
	Coordinates   geo.Coordinates `json:"coordinates"`
	DistanceKm    float64         `json:"distanceKm"`
	DetourKm      float64         `json:"detourKm"`
	TimeWindow    *TimeWindow     `json:"timeWindow,omitempty"`
	Rating        *float64        `json:"rating,omitempty"`
	PriceTier     PriceTier       `json:"priceTier"`
	Tags          []string        `json:"tags,omitempty"`
	VehicleLimits *VehicleLimits  `json:"vehicleLimits,omitempty"`
}

// SameTags reports whether both candidates carry the identical, non-empty tag set.
func (c *Candidate) SameTags(other *Candidate) bool {
	if len(c.Tags) == 0 || len(c.Tags) != len(other.Tags) {
		return false
	}
	return slices.Equal(c.Tags, other.Tags)
}

// AdmitsVehicle reports whether an overnight candidate accepts the vehicle.
// Candidates without declared limits accept everything.
func (c *Candidate) AdmitsVehicle(v *Vehicle) bool {
	if v == nil || c.VehicleLimits == nil {
		return true
	}
	return c.VehicleLimits.Admits(*v)
}

// NormalizeTags lowercases, trims, deduplicates and sorts tags.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
