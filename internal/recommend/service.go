// Package recommend is the service boundary around the planning engine. It
// loads traveller preferences, fetches and caches candidate pools, applies
// last-request-wins per session and records telemetry.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/config"
	"github.com/vanroute/vanroute/internal/geo"
	"github.com/vanroute/vanroute/internal/planner"
)

// PreferenceStore resolves a user's stored preferences. A nil result means
// neutral preferences.
type PreferenceStore interface {
	Preferences(ctx context.Context, userID string) (*planner.Preferences, error)
}

// ServiceConfig holds configuration for the recommendation service.
type ServiceConfig struct {
	Engine *planner.Engine
	Source candidate.Source

	// Profiles is optional; without it every request uses neutral preferences.
	Profiles PreferenceStore

	Logger zerolog.Logger

	// Cache and fetch tuning. Zero fields take the defaults from config.Default.
	Recommend config.RecommendConfig

	// RetryInterval is the first backoff interval between fetch attempts
	// (default: 200ms).
	RetryInterval time.Duration

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Service answers plan and trip requests.
type Service struct {
	engine   *planner.Engine
	profiles PreferenceStore
	logger   zerolog.Logger
	pools    *poolCache
	seq      *Sequencer
	metrics  *metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService creates a new recommendation service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Engine == nil {
		return nil, errors.New("recommend: engine is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("recommend: candidate source is required")
	}

	rc := withDefaults(cfg.Recommend)
	retryInterval := cfg.RetryInterval
	if retryInterval == 0 {
		retryInterval = 200 * time.Millisecond
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("recommend metrics: %w", err)
	}

	return &Service{
		engine:   cfg.Engine,
		profiles: cfg.Profiles,
		logger:   cfg.Logger,
		pools: &poolCache{
			source:        cfg.Source,
			logger:        cfg.Logger,
			cache:         cache.New(rc.StaleIfErrorTTL, rc.CacheCleanup),
			ttl:           rc.CacheTTL,
			staleTTL:      rc.StaleIfErrorTTL,
			cellSize:      rc.CellSizeDeg,
			limit:         rc.PoolLimit,
			fetchTimeout:  rc.FetchTimeout,
			maxRetries:    rc.FetchMaxRetries,
			retryInterval: retryInterval,
			now:           now,
		},
		seq:     NewSequencer(rc.StaleIfErrorTTL),
		metrics: m,
		tracer:  otel.Tracer(instrumentationName),
		now:     now,
	}, nil
}

func withDefaults(rc config.RecommendConfig) config.RecommendConfig {
	def := config.Default().Recommend
	if rc.CacheTTL == 0 {
		rc.CacheTTL = def.CacheTTL
	}
	if rc.CacheCleanup == 0 {
		rc.CacheCleanup = def.CacheCleanup
	}
	if rc.StaleIfErrorTTL == 0 {
		rc.StaleIfErrorTTL = def.StaleIfErrorTTL
	}
	if rc.StaleIfErrorTTL < rc.CacheTTL {
		rc.StaleIfErrorTTL = rc.CacheTTL
	}
	if rc.CellSizeDeg == 0 {
		rc.CellSizeDeg = def.CellSizeDeg
	}
	if rc.FetchTimeout == 0 {
		rc.FetchTimeout = def.FetchTimeout
	}
	if rc.PoolLimit == 0 {
		rc.PoolLimit = def.PoolLimit
	}
	return rc
}

// PlanQuery asks for day plans around a position.
type PlanQuery struct {
	// SessionKey groups requests for last-request-wins. Empty disables it.
	SessionKey  string
	UserID      string
	Position    geo.Coordinates
	EnvelopeKm  float64
	Destination *geo.Coordinates
	// Preferences override the stored ones when set.
	Preferences *planner.Preferences
}

// PlanResult carries the plans and how many raw records were dropped.
type PlanResult struct {
	Plans    []planner.DayPlan
	Skipped  int
	Sequence uint64
}

// GeneratePlans returns one plan per archetype for the query. A response
// overtaken by a newer request on the same session fails with ErrSuperseded.
func (s *Service) GeneratePlans(ctx context.Context, q PlanQuery) (*PlanResult, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "recommend.GeneratePlans",
		trace.WithAttributes(
			attribute.Float64("envelope_km", q.EnvelopeKm),
			attribute.Bool("has_destination", q.Destination != nil),
		),
	)
	defer span.End()

	ctx, ticket := s.seq.Begin(ctx, q.SessionKey)
	span.SetAttributes(attribute.Int64("sequence", int64(ticket.Seq())))

	res, err := s.generatePlans(ctx, q)
	if finishErr := s.seq.Finish(ticket); finishErr != nil {
		err = s.superseded(ctx, span, "generate_plans", q.SessionKey, ticket)
		return nil, err
	}
	s.observe(ctx, span, "generate_plans", start, err)
	if err != nil {
		return nil, err
	}

	res.Sequence = ticket.Seq()
	s.metrics.plans.Add(ctx, int64(len(res.Plans)))
	s.logger.Debug().
		Str("session_key", q.SessionKey).
		Uint64("sequence", ticket.Seq()).
		Int("plan_count", len(res.Plans)).
		Int("skipped", res.Skipped).
		Msg("generated plans")
	return res, nil
}

func (s *Service) generatePlans(ctx context.Context, q PlanQuery) (*PlanResult, error) {
	if err := q.Position.Validate(); err != nil {
		return nil, &planner.InputError{Field: "position", Reason: err.Error()}
	}
	if math.IsNaN(q.EnvelopeKm) || math.IsInf(q.EnvelopeKm, 0) || q.EnvelopeKm < 0 {
		return nil, &planner.InputError{Field: "envelopeKm", Reason: fmt.Sprintf("must be a non-negative number, got %v", q.EnvelopeKm)}
	}

	prefs, err := s.preferences(ctx, q.UserID, q.Preferences)
	if err != nil {
		return nil, err
	}

	radius := math.Max(q.EnvelopeKm, s.engine.Config().Assembly.ZeroRadiusKm)
	raws, result, err := s.pools.Nearby(ctx, q.Position, radius)
	if err != nil {
		return nil, err
	}
	norm := candidate.NormalizeAll(raws, q.Position)
	s.metrics.recordPool(ctx, "generate_plans", result, len(norm.Candidates), norm.Skipped)

	plans, err := s.engine.GeneratePlans(planner.PlanRequest{
		Position:    q.Position,
		EnvelopeKm:  q.EnvelopeKm,
		Destination: q.Destination,
		Preferences: prefs,
		Candidates:  norm.Candidates,
		Now:         s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &PlanResult{Plans: plans, Skipped: norm.Skipped}, nil
}

// WaypointQuery asks for stops between two points.
type WaypointQuery struct {
	SessionKey    string
	UserID        string
	Start         geo.Coordinates
	End           geo.Coordinates
	StopCount     int
	MaxDistanceKm float64
	Preferences   *planner.Preferences
}

// WaypointResult carries the sequence and how many raw records were dropped.
type WaypointResult struct {
	Sequence planner.WaypointSequence
	Skipped  int
	Seq      uint64
}

// SuggestWaypoints fetches candidates along the corridor and picks evenly
// spaced stops.
func (s *Service) SuggestWaypoints(ctx context.Context, q WaypointQuery) (*WaypointResult, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "recommend.SuggestWaypoints",
		trace.WithAttributes(attribute.Int("stop_count", q.StopCount)),
	)
	defer span.End()

	ctx, ticket := s.seq.Begin(ctx, q.SessionKey)
	res, err := s.suggestWaypoints(ctx, q)
	if finishErr := s.seq.Finish(ticket); finishErr != nil {
		return nil, s.superseded(ctx, span, "suggest_waypoints", q.SessionKey, ticket)
	}
	s.observe(ctx, span, "suggest_waypoints", start, err)
	if err != nil {
		return nil, err
	}
	res.Seq = ticket.Seq()
	return res, nil
}

func (s *Service) suggestWaypoints(ctx context.Context, q WaypointQuery) (*WaypointResult, error) {
	if err := q.Start.Validate(); err != nil {
		return nil, &planner.InputError{Field: "start", Reason: err.Error()}
	}
	if err := q.End.Validate(); err != nil {
		return nil, &planner.InputError{Field: "end", Reason: err.Error()}
	}
	if math.IsNaN(q.MaxDistanceKm) || q.MaxDistanceKm < 0 {
		return nil, &planner.InputError{Field: "maxDistanceKm", Reason: fmt.Sprintf("must be non-negative, got %v", q.MaxDistanceKm)}
	}

	prefs, err := s.preferences(ctx, q.UserID, q.Preferences)
	if err != nil {
		return nil, err
	}

	buffer := q.MaxDistanceKm
	if buffer == 0 {
		buffer = s.engine.Config().Waypoints.DefaultMaxDistanceKm
	}
	raws, result, err := s.pools.AlongCorridor(ctx, q.Start, q.End, buffer)
	if err != nil {
		return nil, err
	}
	norm := candidate.NormalizeAll(raws, q.Start)
	s.metrics.recordPool(ctx, "suggest_waypoints", result, len(norm.Candidates), norm.Skipped)

	seq, err := s.engine.SuggestWaypoints(planner.WaypointRequest{
		Start:         q.Start,
		End:           q.End,
		StopCount:     q.StopCount,
		MaxDistanceKm: q.MaxDistanceKm,
		Candidates:    norm.Candidates,
		Preferences:   prefs,
		Now:           s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &WaypointResult{Sequence: seq, Skipped: norm.Skipped}, nil
}

// EvaluateFeasibility rates a multi-day trip. A zero avgSpeedKmh uses the
// configured speed.
func (s *Service) EvaluateFeasibility(totalKm float64, days int, avgSpeedKmh float64) (planner.FeasibilityVerdict, error) {
	if avgSpeedKmh == 0 {
		return s.engine.EvaluateFeasibility(totalKm, days)
	}
	return s.engine.EvaluateFeasibilityAt(totalKm, days, avgSpeedKmh)
}

// ReplaceItem swaps one item of a plan.
func (s *Service) ReplaceItem(plan planner.DayPlan, category planner.Category, index int, c candidate.Candidate) (planner.DayPlan, error) {
	return planner.ReplaceItem(plan, category, index, c)
}

// RemoveItem drops one item of a plan.
func (s *Service) RemoveItem(plan planner.DayPlan, category planner.Category, id string) (planner.DayPlan, error) {
	return planner.RemoveItem(plan, category, id)
}

// ConfirmOvernight narrows a plan's overnight list to the chosen spot.
func (s *Service) ConfirmOvernight(plan planner.DayPlan, id string) (planner.DayPlan, error) {
	return planner.ConfirmOvernight(plan, id)
}

// FlushCache drops every cached candidate pool.
func (s *Service) FlushCache() {
	s.pools.Flush()
}

// CachedPools returns the number of cached candidate pools.
func (s *Service) CachedPools() int {
	return s.pools.Len()
}

func (s *Service) preferences(ctx context.Context, userID string, override *planner.Preferences) (*planner.Preferences, error) {
	if override != nil {
		return override, nil
	}
	if s.profiles == nil || userID == "" {
		return nil, nil
	}
	prefs, err := s.profiles.Preferences(ctx, userID)
	if err != nil {
		// Stored preferences only refine ranking; fall back to neutral.
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to load preferences")
		return nil, nil
	}
	return prefs, nil
}

func (s *Service) superseded(ctx context.Context, span trace.Span, op, key string, t Ticket) error {
	latest, _ := s.seq.Latest(key)
	s.metrics.superseded.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	span.SetStatus(codes.Error, ErrSuperseded.Error())
	s.logger.Debug().
		Str("session_key", key).
		Uint64("sequence", t.Seq()).
		Uint64("latest", latest).
		Msg("discarding superseded response")
	return ErrSuperseded
}

func (s *Service) observe(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var inputErr *planner.InputError
		if errors.As(err, &inputErr) {
			outcome = "invalid"
		}
	}
	s.metrics.planDuration.Record(ctx, s.now().Sub(start).Seconds(),
		metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("outcome", outcome),
		),
	)
}
