package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/planner"
)

// ServiceConfig holds configuration for the profile service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Service reads and writes traveller preferences.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new profile service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: cfg.Repository, logger: cfg.Logger, now: now}
}

// Preferences returns the user's preferences, or nil when the user has none
// stored. Anonymous callers (empty userID) always get nil.
func (s *Service) Preferences(ctx context.Context, userID string) (*planner.Preferences, error) {
	if userID == "" {
		return nil, nil
	}
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return &p.Preferences, nil
}

// Get returns the stored profile.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.Get(ctx, userID)
}

// Update validates and stores prefs, normalizing interest and environment tags.
func (s *Service) Update(ctx context.Context, userID string, prefs planner.Preferences) (*Profile, error) {
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	prefs.Interests = candidate.NormalizeTags(prefs.Interests)
	prefs.Environments = candidate.NormalizeTags(prefs.Environments)
	if prefs.BudgetCeiling == "" {
		prefs.BudgetCeiling = candidate.PriceUnknown
	}

	now := s.now().UTC()
	p := &Profile{
		UserID:      userID,
		Preferences: prefs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing, err := s.repo.Get(ctx, userID); err == nil {
		p.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("store profile: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("interest_count", len(prefs.Interests)).
		Str("pace", string(prefs.Pace)).
		Msg("preferences updated")
	return p, nil
}

// Delete removes a user's preferences.
func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}
