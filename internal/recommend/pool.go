package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/geo"
)

// ErrCandidateSourceUnavailable is returned when no candidate pool could be
// fetched and no stale pool was cached.
var ErrCandidateSourceUnavailable = errors.New("candidate source unavailable")

type cacheResult string

const (
	cacheHit   cacheResult = "hit"
	cacheMiss  cacheResult = "miss"
	cacheStale cacheResult = "stale"
)

type poolEntry struct {
	records   []candidate.RawRecord
	fetchedAt time.Time
}

// poolCache fetches raw candidate pools and caches them per grid cell.
// Entries are fresh for ttl and kept for staleTTL to serve on source errors.
type poolCache struct {
	source        candidate.Source
	logger        zerolog.Logger
	cache         *cache.Cache
	ttl           time.Duration
	staleTTL      time.Duration
	cellSize      float64
	limit         int
	fetchTimeout  time.Duration
	maxRetries    uint64
	retryInterval time.Duration
	now           func() time.Time
}

// cell is a quantized position.
type cell struct {
	lat, lng int64
}

func (p *poolCache) cellOf(c geo.Coordinates) cell {
	return cell{
		lat: int64(math.Floor(c.Lat / p.cellSize)),
		lng: int64(math.Floor(c.Lng / p.cellSize)),
	}
}

func (p *poolCache) center(k cell) geo.Coordinates {
	return geo.Coordinates{
		Lat: (float64(k.lat) + 0.5) * p.cellSize,
		Lng: (float64(k.lng) + 0.5) * p.cellSize,
	}
}

// padKm is the furthest any point of the cell lies from its center.
func (p *poolCache) padKm(k cell) float64 {
	c := p.center(k)
	low := geo.Coordinates{Lat: float64(k.lat) * p.cellSize, Lng: float64(k.lng) * p.cellSize}
	high := geo.Coordinates{Lat: float64(k.lat+1) * p.cellSize, Lng: float64(k.lng) * p.cellSize}
	return math.Max(geo.DistanceKm(c, low), geo.DistanceKm(c, high))
}

// radiusBucket rounds a radius up to the next 10 km so nearby requests with
// similar envelopes share one cache entry.
func radiusBucket(km float64) float64 {
	return math.Ceil(km/10) * 10
}

// Nearby returns every raw record within radiusKm of pos. The pool may hold
// records slightly beyond the radius.
func (p *poolCache) Nearby(ctx context.Context, pos geo.Coordinates, radiusKm float64) ([]candidate.RawRecord, cacheResult, error) {
	k := p.cellOf(pos)
	bucket := radiusBucket(radiusKm)
	key := fmt.Sprintf("near:%d,%d:%.0f", k.lat, k.lng, bucket)
	area := candidate.Area{
		Center:   p.center(k),
		RadiusKm: bucket + p.padKm(k),
		Limit:    p.limit,
	}
	return p.get(ctx, key, func(ctx context.Context) ([]candidate.RawRecord, error) {
		return p.source.Nearby(ctx, area)
	})
}

// AlongCorridor returns every raw record within bufferKm of the segment
// from start to end.
func (p *poolCache) AlongCorridor(ctx context.Context, start, end geo.Coordinates, bufferKm float64) ([]candidate.RawRecord, cacheResult, error) {
	ks, ke := p.cellOf(start), p.cellOf(end)
	bucket := radiusBucket(bufferKm)
	key := fmt.Sprintf("corridor:%d,%d:%d,%d:%.0f", ks.lat, ks.lng, ke.lat, ke.lng, bucket)
	area := candidate.CorridorArea{
		Start:    p.center(ks),
		End:      p.center(ke),
		BufferKm: bucket + math.Max(p.padKm(ks), p.padKm(ke)),
		Limit:    p.limit,
	}
	return p.get(ctx, key, func(ctx context.Context) ([]candidate.RawRecord, error) {
		return p.source.AlongCorridor(ctx, area)
	})
}

func (p *poolCache) get(ctx context.Context, key string, fetch func(context.Context) ([]candidate.RawRecord, error)) ([]candidate.RawRecord, cacheResult, error) {
	cached, found := p.lookup(key)
	if found && p.now().Sub(cached.fetchedAt) < p.ttl {
		p.logger.Debug().
			Str("cache_key", key).
			Int("record_count", len(cached.records)).
			Msg("cache hit for candidate pool")
		return cached.records, cacheHit, nil
	}

	records, err := p.fetch(ctx, fetch)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cacheMiss, ctx.Err()
		}
		if found && p.now().Sub(cached.fetchedAt) < p.staleTTL {
			p.logger.Warn().Err(err).
				Time("fetched_at", cached.fetchedAt).
				Str("cache_key", key).
				Msg("serving stale candidate pool due to source error")
			return cached.records, cacheStale, nil
		}
		p.logger.Error().Err(err).
			Str("cache_key", key).
			Str("source", p.source.Name()).
			Msg("failed to fetch candidate pool")
		return nil, cacheMiss, fmt.Errorf("%w: %w", ErrCandidateSourceUnavailable, err)
	}

	p.cache.Set(key, &poolEntry{records: records, fetchedAt: p.now()}, p.staleTTL)
	p.logger.Debug().
		Str("cache_key", key).
		Int("record_count", len(records)).
		Msg("cached candidate pool")
	return records, cacheMiss, nil
}

func (p *poolCache) lookup(key string) (*poolEntry, bool) {
	v, ok := p.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry, ok := v.(*poolEntry)
	return entry, ok
}

// fetch calls the source with exponential backoff, each attempt bounded
// by the fetch timeout.
func (p *poolCache) fetch(ctx context.Context, fetch func(context.Context) ([]candidate.RawRecord, error)) ([]candidate.RawRecord, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.retryInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, p.maxRetries), ctx)

	var records []candidate.RawRecord
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()

		r, err := fetch(attemptCtx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		records = r
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return records, nil
}

// Flush drops every cached pool.
func (p *poolCache) Flush() {
	p.cache.Flush()
}

// Len returns the number of cached pools, stale ones included.
func (p *poolCache) Len() int {
	return p.cache.ItemCount()
}
