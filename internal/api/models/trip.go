package models

import "github.com/vanroute/vanroute/internal/planner"

// SuggestWaypointsRequest is the body of POST /v1/trips:suggest-waypoints.
type SuggestWaypointsRequest struct {
	Start     *Point `json:"start"`
	End       *Point `json:"end"`
	StopCount *int   `json:"stopCount"`
	// MaxDistanceKm bounds how far off the direct line a stop may be.
	// Zero or absent uses the server default.
	MaxDistanceKm float64              `json:"maxDistanceKm,omitempty"`
	Preferences   *planner.Preferences `json:"preferences,omitempty"`
}

// Validate reports missing required fields.
func (r *SuggestWaypointsRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Start == nil {
		errs = append(errs, FieldError{Field: "start", Message: "required", Code: CodeRequired})
	}
	if r.End == nil {
		errs = append(errs, FieldError{Field: "end", Message: "required", Code: CodeRequired})
	}
	if r.StopCount == nil {
		errs = append(errs, FieldError{Field: "stopCount", Message: "required", Code: CodeRequired})
	}
	return errs
}

// SuggestWaypointsResponse is the ordered stop list plus an encoded
// polyline of start, waypoints and end for map previews.
type SuggestWaypointsResponse struct {
	GeneratedAt Timestamp          `json:"generatedAt"`
	Sequence    uint64             `json:"sequence"`
	Skipped     int                `json:"skippedCandidates"`
	Start       Point              `json:"start"`
	End         Point              `json:"end"`
	DirectKm    float64            `json:"directKm"`
	Waypoints   []planner.Waypoint `json:"waypoints"`
	Polyline    string             `json:"polyline"`
}

// EvaluateFeasibilityRequest is the body of POST /v1/trips:evaluate-feasibility.
type EvaluateFeasibilityRequest struct {
	TotalDistanceKm *float64 `json:"totalDistanceKm"`
	DurationDays    *int     `json:"durationDays"`
	// AvgSpeedKmh overrides the server's average driving speed.
	AvgSpeedKmh float64 `json:"avgSpeedKmh,omitempty"`
}

// Validate reports missing required fields.
func (r *EvaluateFeasibilityRequest) Validate() []FieldError {
	var errs []FieldError
	if r.TotalDistanceKm == nil {
		errs = append(errs, FieldError{Field: "totalDistanceKm", Message: "required", Code: CodeRequired})
	}
	if r.DurationDays == nil {
		errs = append(errs, FieldError{Field: "durationDays", Message: "required", Code: CodeRequired})
	}
	return errs
}

// FeasibilityResponse is the verdict for a trip.
type FeasibilityResponse struct {
	Level          planner.FeasibilityLevel `json:"level"`
	EstimatedHours float64                  `json:"estimatedHours"`
	HoursPerDay    float64                  `json:"hoursPerDay"`
	AvgSpeedKmh    float64                  `json:"avgSpeedKmh"`
}
