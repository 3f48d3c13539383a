package models

import "github.com/vanroute/vanroute/internal/planner"

// PreferencesResponse is the caller's stored preferences.
type PreferencesResponse struct {
	UserID      string              `json:"userId"`
	Preferences planner.Preferences `json:"preferences"`
	CreatedAt   *Timestamp          `json:"createdAt,omitempty"`
	UpdatedAt   *Timestamp          `json:"updatedAt,omitempty"`
}
