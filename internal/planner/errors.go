package planner

import (
	"errors"
	"fmt"
)

// Engine errors. Empty results are never errors.
var (
	// ErrInvalidInput marks caller errors: malformed coordinates, negative
	// envelopes, non-positive durations and the like.
	ErrInvalidInput = errors.New("invalid input")

	// ErrKindMismatch is returned when a candidate's kind does not fit a plan category.
	ErrKindMismatch = errors.New("candidate kind does not match category")

	// ErrItemNotFound is returned when a mutation names an item the plan does not hold.
	ErrItemNotFound = errors.New("item not found in plan")

	// ErrDuplicateItem is returned when a mutation would place the same candidate twice.
	ErrDuplicateItem = errors.New("candidate already in plan")
)

// InputError identifies the offending input field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
