// Package profile stores traveller preferences.
//
// Only planning preferences are kept: interests, environments, pace, budget
// and vehicle dimensions. Identity data lives with the auth provider.
package profile

import (
	"time"

	"github.com/vanroute/vanroute/internal/planner"
)

// Profile is a traveller's stored preferences.
type Profile struct {
	// UserID is the subject of the access token that owns the profile.
	UserID string

	Preferences planner.Preferences

	CreatedAt time.Time
	UpdatedAt time.Time
}

func copyProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Preferences.Interests = append([]string(nil), p.Preferences.Interests...)
	out.Preferences.Environments = append([]string(nil), p.Preferences.Environments...)
	if p.Preferences.Vehicle != nil {
		v := *p.Preferences.Vehicle
		out.Preferences.Vehicle = &v
	}
	return &out
}
