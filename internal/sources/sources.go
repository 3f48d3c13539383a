// Package sources assembles the candidate source chain from configuration.
package sources

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/candidate/qdrant"
	"github.com/vanroute/vanroute/internal/config"
	"github.com/vanroute/vanroute/internal/provider/resilience"
)

// Deps are the shared resources sources are built from.
type Deps struct {
	Config config.SourcesConfig
	// Pool is nil when no database is configured.
	Pool *pgxpool.Pool
	// Registry receives the Qdrant client for status reporting.
	Registry *resilience.Registry
	Logger   zerolog.Logger
}

// Build returns the configured sources merged into one. PostGIS is listed
// first so its records win on duplicate IDs. With nothing configured an
// empty in-memory source is returned, and every plan comes back empty.
func Build(d Deps) (candidate.Source, error) {
	var list []candidate.Source

	if d.Config.PostGIS && d.Pool != nil {
		list = append(list, candidate.NewPostgresRepository(d.Pool))
	}

	if q := d.Config.Qdrant; q.URL != "" {
		clientCfg := resilience.DefaultClientConfig("qdrant")
		clientCfg.Registry = d.Registry
		list = append(list, qdrant.NewClient(qdrant.Config{
			BaseURL:    q.URL,
			Collection: q.Collection,
			APIKey:     q.APIKey,
		}, resilience.NewClient(clientCfg)))
	}

	if d.Config.SeedFile != "" {
		records, err := LoadSeed(d.Config.SeedFile)
		if err != nil {
			return nil, err
		}
		list = append(list, candidate.NewInMemoryRepository(records...))
	}

	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, s.Name())
	}

	switch len(list) {
	case 0:
		d.Logger.Warn().Msg("no candidate source configured, serving an empty pool")
		return candidate.NewInMemoryRepository(), nil
	case 1:
		d.Logger.Info().Strs("sources", names).Msg("candidate source configured")
		return list[0], nil
	default:
		d.Logger.Info().Strs("sources", names).Msg("candidate sources configured")
		return candidate.NewMultiSource(d.Logger, list...), nil
	}
}

// LoadSeed reads a JSON array of raw records.
func LoadSeed(path string) ([]candidate.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []candidate.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return records, nil
}
