package planner

import "math"

// FeasibilityLevel is a coarse verdict on a trip's driving pace.
type FeasibilityLevel string

const (
	FeasibilityComfortable  FeasibilityLevel = "COMFORTABLE"
	FeasibilityTight        FeasibilityLevel = "TIGHT"
	FeasibilityTooAmbitious FeasibilityLevel = "TOO_AMBITIOUS"
)

// FeasibilityVerdict is the verdict with the numbers that produced it.
type FeasibilityVerdict struct {
	Level          FeasibilityLevel `json:"level"`
	EstimatedHours float64          `json:"estimatedHours"`
	HoursPerDay    float64          `json:"hoursPerDay"`
	AvgSpeedKmh    float64          `json:"avgSpeedKmh"`
}

// evaluateFeasibility divides the driving time over the days available.
func evaluateFeasibility(totalKm float64, days int, avgSpeedKmh float64, cfg FeasibilityConfig) (FeasibilityVerdict, error) {
	if math.IsNaN(totalKm) || math.IsInf(totalKm, 0) || totalKm < 0 {
		return FeasibilityVerdict{}, invalid("totalDistanceKm", "must be a non-negative number, got %v", totalKm)
	}
	if days <= 0 {
		return FeasibilityVerdict{}, invalid("durationDays", "must be at least 1, got %d", days)
	}
	if math.IsNaN(avgSpeedKmh) || math.IsInf(avgSpeedKmh, 0) || avgSpeedKmh <= 0 {
		return FeasibilityVerdict{}, invalid("avgSpeedKmh", "must be positive, got %v", avgSpeedKmh)
	}

	hours := totalKm / avgSpeedKmh
	perDay := hours / float64(days)

	level := FeasibilityTooAmbitious
	switch {
	case perDay <= cfg.ComfortableHoursPerDay:
		level = FeasibilityComfortable
	case perDay <= cfg.TightHoursPerDay:
		level = FeasibilityTight
	}

	return FeasibilityVerdict{
		Level:          level,
		EstimatedHours: hours,
		HoursPerDay:    perDay,
		AvgSpeedKmh:    avgSpeedKmh,
	}, nil
}
