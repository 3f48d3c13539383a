package models

import (
	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/planner"
)

// GeneratePlansRequest is the body of POST /v1/plans:generate.
type GeneratePlansRequest struct {
	Position    *Point   `json:"position"`
	EnvelopeKm  *float64 `json:"envelopeKm"`
	Destination *Point   `json:"destination,omitempty"`
	// Preferences override the caller's stored preferences for this request.
	Preferences *planner.Preferences `json:"preferences,omitempty"`
}

// Validate reports missing required fields.
func (r *GeneratePlansRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Position == nil {
		errs = append(errs, FieldError{Field: "position", Message: "required", Code: CodeRequired})
	}
	if r.EnvelopeKm == nil {
		errs = append(errs, FieldError{Field: "envelopeKm", Message: "required", Code: CodeRequired})
	}
	return errs
}

// GeneratePlansResponse lists one plan per archetype, primary first.
type GeneratePlansResponse struct {
	GeneratedAt Timestamp         `json:"generatedAt"`
	Sequence    uint64            `json:"sequence"`
	Skipped     int               `json:"skippedCandidates"`
	Plans       []planner.DayPlan `json:"plans"`
}

// ReplaceItemRequest is the body of POST /v1/plans:replace-item.
type ReplaceItemRequest struct {
	Plan      *planner.DayPlan     `json:"plan"`
	Category  planner.Category     `json:"category"`
	Index     *int                 `json:"index"`
	Candidate *candidate.Candidate `json:"candidate"`
}

// Validate reports missing required fields.
func (r *ReplaceItemRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Plan == nil {
		errs = append(errs, FieldError{Field: "plan", Message: "required", Code: CodeRequired})
	}
	errs = validateCategory(errs, r.Category)
	if r.Index == nil {
		errs = append(errs, FieldError{Field: "index", Message: "required", Code: CodeRequired})
	}
	if r.Candidate == nil {
		errs = append(errs, FieldError{Field: "candidate", Message: "required", Code: CodeRequired})
	} else if r.Candidate.ID == "" {
		errs = append(errs, FieldError{Field: "candidate.id", Message: "required", Code: CodeRequired})
	}
	return errs
}

// RemoveItemRequest is the body of POST /v1/plans:remove-item.
type RemoveItemRequest struct {
	Plan     *planner.DayPlan `json:"plan"`
	Category planner.Category `json:"category"`
	ItemID   string           `json:"itemId"`
}

// Validate reports missing required fields.
func (r *RemoveItemRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Plan == nil {
		errs = append(errs, FieldError{Field: "plan", Message: "required", Code: CodeRequired})
	}
	errs = validateCategory(errs, r.Category)
	if r.ItemID == "" {
		errs = append(errs, FieldError{Field: "itemId", Message: "required", Code: CodeRequired})
	}
	return errs
}

// ConfirmOvernightRequest is the body of POST /v1/plans:confirm-overnight.
type ConfirmOvernightRequest struct {
	Plan   *planner.DayPlan `json:"plan"`
	ItemID string           `json:"itemId"`
}

// Validate reports missing required fields.
func (r *ConfirmOvernightRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Plan == nil {
		errs = append(errs, FieldError{Field: "plan", Message: "required", Code: CodeRequired})
	}
	if r.ItemID == "" {
		errs = append(errs, FieldError{Field: "itemId", Message: "required", Code: CodeRequired})
	}
	return errs
}

// PlanResponse wraps a single edited plan.
type PlanResponse struct {
	Plan planner.DayPlan `json:"plan"`
}

func validateCategory(errs []FieldError, c planner.Category) []FieldError {
	if c == "" {
		return append(errs, FieldError{Field: "category", Message: "required", Code: CodeRequired})
	}
	if _, ok := c.Kind(); !ok {
		return append(errs, FieldError{Field: "category", Message: "must be one of stops, events, overnight", Code: CodeInvalid})
	}
	return errs
}
