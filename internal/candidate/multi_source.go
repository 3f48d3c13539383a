package candidate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// MultiSource fans a query out to several sources concurrently and merges
// the results. A failing source is logged and skipped; the query only fails
// when every source fails.
type MultiSource struct {
	sources []Source
	logger  zerolog.Logger
}

// NewMultiSource creates a MultiSource. Earlier sources win when two sources
// return the same record ID.
func NewMultiSource(logger zerolog.Logger, sources ...Source) *MultiSource {
	return &MultiSource{sources: sources, logger: logger}
}

// Name implements Source.
func (m *MultiSource) Name() string { return "multi" }

// Nearby implements Source.
func (m *MultiSource) Nearby(ctx context.Context, area Area) ([]RawRecord, error) {
	return m.fanOut(ctx, "nearby", func(ctx context.Context, s Source) ([]RawRecord, error) {
		return s.Nearby(ctx, area)
	})
}

// AlongCorridor implements Source.
func (m *MultiSource) AlongCorridor(ctx context.Context, corridor CorridorArea) ([]RawRecord, error) {
	return m.fanOut(ctx, "corridor", func(ctx context.Context, s Source) ([]RawRecord, error) {
		return s.AlongCorridor(ctx, corridor)
	})
}

func (m *MultiSource) fanOut(
	ctx context.Context,
	op string,
	call func(context.Context, Source) ([]RawRecord, error),
) ([]RawRecord, error) {
	if len(m.sources) == 0 {
		return nil, ErrSourceUnavailable
	}

	results := make([][]RawRecord, len(m.sources))
	errs := make([]error, len(m.sources))

	var wg sync.WaitGroup
	for i, src := range m.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i], errs[i] = call(ctx, src)
		}(i, src)
	}
	wg.Wait()

	var (
		merged []RawRecord
		failed int
		seen   = make(map[string]struct{})
	)
	for i, src := range m.sources {
		if errs[i] != nil {
			failed++
			m.logger.Warn().
				Err(errs[i]).
				Str("source", src.Name()).
				Str("op", op).
				Msg("candidate source failed")
			continue
		}
		for _, rec := range results[i] {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			merged = append(merged, rec)
		}
	}

	if failed == len(m.sources) {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, errors.Join(errs...))
	}
	return merged, nil
}
