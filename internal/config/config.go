// Package config loads engine, service and worker tuning.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// VANROUTE_ environment variables. Nested keys in environment variables are
// separated by a double underscore, e.g. VANROUTE_RECOMMEND__CACHE_TTL=10m
// sets recommend.cache_ttl.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/vanroute/vanroute/internal/planner"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VANROUTE_"

// PathEnvVar overrides the config file location.
const PathEnvVar = "VANROUTE_CONFIG"

// DefaultPaths are searched in order when no path is given.
var DefaultPaths = []string{
	"vanroute.yaml",
	"vanroute.yml",
	"/etc/vanroute/config.yaml",
}

// RecommendConfig tunes the recommendation service around the engine.
type RecommendConfig struct {
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheCleanup    time.Duration `koanf:"cache_cleanup"`
	StaleIfErrorTTL time.Duration `koanf:"stale_if_error_ttl"`
	// CellSizeDeg quantizes positions into cache cells.
	CellSizeDeg     float64       `koanf:"cell_size_deg"`
	FetchTimeout    time.Duration `koanf:"fetch_timeout"`
	FetchMaxRetries uint64        `koanf:"fetch_max_retries"`
	PoolLimit       int           `koanf:"pool_limit"`
}

// QdrantConfig locates the search-index candidate source.
type QdrantConfig struct {
	URL        string `koanf:"url"`
	Collection string `koanf:"collection"`
	APIKey     string `koanf:"api_key"`
}

// SourcesConfig selects candidate sources.
type SourcesConfig struct {
	PostGIS bool         `koanf:"postgis"`
	Qdrant  QdrantConfig `koanf:"qdrant"`
	// SeedFile is a JSON array of raw records served from memory, for
	// local runs and demos without a database.
	SeedFile string `koanf:"seed_file"`
}

// Region is an area the coverage sweep checks.
type Region struct {
	Name     string  `koanf:"name"`
	Lat      float64 `koanf:"lat"`
	Lng      float64 `koanf:"lng"`
	RadiusKm float64 `koanf:"radius_km"`
}

// WorkerConfig tunes the background worker.
type WorkerConfig struct {
	SweepInterval time.Duration `koanf:"sweep_interval"`
	Concurrency   int           `koanf:"concurrency"`
	Regions       []Region      `koanf:"regions"`
}

// Config is the full tuning surface.
type Config struct {
	Planner   planner.Config  `koanf:"planner"`
	Recommend RecommendConfig `koanf:"recommend"`
	Sources   SourcesConfig   `koanf:"sources"`
	Worker    WorkerConfig    `koanf:"worker"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Planner: planner.DefaultConfig(),
		Recommend: RecommendConfig{
			CacheTTL:        5 * time.Minute,
			CacheCleanup:    10 * time.Minute,
			StaleIfErrorTTL: 30 * time.Minute,
			CellSizeDeg:     0.05,
			FetchTimeout:    8 * time.Second,
			FetchMaxRetries: 3,
			PoolLimit:       500,
		},
		Sources: SourcesConfig{
			PostGIS: true,
			Qdrant:  QdrantConfig{Collection: "candidates"},
		},
		Worker: WorkerConfig{
			SweepInterval: time.Hour,
			Concurrency:   4,
		},
	}
}

// Load builds the configuration. An empty path searches PathEnvVar and
// DefaultPaths; a missing file is not an error, a given but unreadable one is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := c.Planner.Validate(); err != nil {
		return err
	}
	r := c.Recommend
	if r.CacheTTL <= 0 || r.CellSizeDeg <= 0 || r.FetchTimeout <= 0 || r.PoolLimit <= 0 {
		return errors.New("recommend cache_ttl, cell_size_deg, fetch_timeout and pool_limit must be positive")
	}
	if c.Sources.Qdrant.URL != "" && c.Sources.Qdrant.Collection == "" {
		return errors.New("sources.qdrant.collection is required when a url is set")
	}
	if c.Worker.SweepInterval <= 0 {
		return fmt.Errorf("worker.sweep_interval must be positive, got %s", c.Worker.SweepInterval)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency)
	}
	for i, r := range c.Worker.Regions {
		if r.Name == "" || r.RadiusKm <= 0 {
			return fmt.Errorf("worker.regions[%d] needs a name and a positive radius_km", i)
		}
	}
	return nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey maps VANROUTE_PLANNER__FEASIBILITY__AVG_SPEED_KMH to
// planner.feasibility.avg_speed_kmh. The file path variable is skipped.
func envKey(key string) string {
	if key == PathEnvVar {
		return ""
	}
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}
