// Package main provides the entrypoint for the VanRoute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/vanroute/vanroute/internal/api"
	"github.com/vanroute/vanroute/internal/api/handler"
	"github.com/vanroute/vanroute/internal/api/middleware"
	"github.com/vanroute/vanroute/internal/auth"
	"github.com/vanroute/vanroute/internal/config"
	"github.com/vanroute/vanroute/internal/database"
	"github.com/vanroute/vanroute/internal/planner"
	"github.com/vanroute/vanroute/internal/profile"
	"github.com/vanroute/vanroute/internal/provider/resilience"
	"github.com/vanroute/vanroute/internal/recommend"
	"github.com/vanroute/vanroute/internal/sources"
	"github.com/vanroute/vanroute/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "vanroute-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting VanRoute API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()
	otelCfg := telemetry.ConfigFromEnv(serviceName, Version, env)
	tp, err := telemetry.Init(ctx, otelCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if otelCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", otelCfg.OTLPEndpoint).
			Float64("sample_ratio", otelCfg.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	var checks []handler.Check
	profileRepo := profile.Repository(profile.NewInMemoryRepository())
	deps := sources.Deps{
		Config:   cfg.Sources,
		Registry: resilience.NewRegistry(),
		Logger:   log,
	}

	dbConfig := database.ConfigFromEnv()
	if dbConfig.Enabled() {
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		deps.Pool = pool
		profileRepo = profile.NewPostgresRepository(pool)
		checks = append(checks, handler.Check{Name: "postgres", Check: database.ReadinessCheck(pool)})
	} else {
		log.Warn().Msg("no database configured, preferences are kept in memory")
	}

	source, err := sources.Build(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure candidate sources")
	}

	profiles := profile.NewService(profile.ServiceConfig{
		Repository: profileRepo,
		Logger:     log,
	})

	engine, err := planner.New(cfg.Planner)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid planner configuration")
	}

	recommender, err := recommend.NewService(recommend.ServiceConfig{
		Engine:    engine,
		Source:    source,
		Profiles:  profiles,
		Logger:    log,
		Recommend: cfg.Recommend,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create recommendation service")
	}
	log.Info().
		Dur("cache_ttl", cfg.Recommend.CacheTTL).
		Dur("stale_if_error_ttl", cfg.Recommend.StaleIfErrorTTL).
		Msg("recommendation service initialized")

	signingKey := os.Getenv("JWT_SIGNING_KEY")
	if signingKey == "" {
		signingKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	tokens := auth.NewTokenService(auth.Config{
		SigningKey: signingKey,
		Issuer:     os.Getenv("JWT_ISSUER"),
		Audience:   os.Getenv("JWT_AUDIENCE"),
	})

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		Tokens:          tokens,
		Recommend:       recommender,
		Profiles:        profiles,
		Registry:        deps.Registry,
		ReadinessChecks: checks,
		RequireTLS:      os.Getenv("REQUIRE_TLS") == "true",
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
