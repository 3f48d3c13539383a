// Package api provides the HTTP API for VanRoute.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vanroute/vanroute/internal/api/handler"
	"github.com/vanroute/vanroute/internal/api/middleware"
	"github.com/vanroute/vanroute/internal/profile"
	"github.com/vanroute/vanroute/internal/provider/resilience"
	"github.com/vanroute/vanroute/internal/recommend"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Tokens validates bearer tokens. Required.
	Tokens    middleware.TokenValidator
	Recommend *recommend.Service
	Profiles  *profile.Service

	// Registry exposes candidate provider circuit states on /v1/ops/status.
	Registry        *resilience.Registry
	ReadinessChecks []handler.Check
	RequireTLS      bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "vanroute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Registry:  cfg.Registry,
		Checks:    cfg.ReadinessChecks,
	})
	planHandler := handler.NewPlanHandler(cfg.Recommend, cfg.Logger)
	tripHandler := handler.NewTripHandler(cfg.Recommend, cfg.Logger)
	preferencesHandler := handler.NewPreferencesHandler(cfg.Profiles, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.Tokens)
	optionalAuth := middleware.OptionalAuth(cfg.Tokens)

	// Planning is keyed by user when signed in, by IP otherwise.
	planningRateLimit := middleware.RateLimitByUser(middleware.PlanningRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Plan and trip endpoints work anonymously; a valid token adds the
		// caller's stored preferences and scopes the session key.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Use(middleware.Session)
			r.Use(planningRateLimit)
			r.Use(middleware.RequireJSON)

			r.Post("/plans:generate", planHandler.GeneratePlans)
			r.Post("/plans:replace-item", planHandler.ReplaceItem)
			r.Post("/plans:remove-item", planHandler.RemoveItem)
			r.Post("/plans:confirm-overnight", planHandler.ConfirmOvernight)

			r.Post("/trips:suggest-waypoints", tripHandler.SuggestWaypoints)
			r.Post("/trips:evaluate-feasibility", tripHandler.EvaluateFeasibility)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))

			r.Get("/preferences", preferencesHandler.GetPreferences)
			r.With(middleware.RequireJSON).Put("/preferences", preferencesHandler.UpdatePreferences)
			r.Delete("/preferences", preferencesHandler.DeletePreferences)
		})
	})

	return r
}
