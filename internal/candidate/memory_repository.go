package candidate

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/vanroute/vanroute/internal/geo"
)

// InMemoryRepository is an in-memory Source. It backs tests and local runs
// without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]RawRecord
}

// NewInMemoryRepository creates a repository seeded with records.
func NewInMemoryRepository(records ...RawRecord) *InMemoryRepository {
	r := &InMemoryRepository{records: make(map[string]RawRecord, len(records))}
	for _, rec := range records {
		r.records[rec.ID] = rec
	}
	return r
}

// Name implements Source.
func (r *InMemoryRepository) Name() string { return "memory" }

// Put inserts or replaces a record.
func (r *InMemoryRepository) Put(rec RawRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
}

// Len returns the number of stored records.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Nearby implements Source. Records without coordinates are never returned.
func (r *InMemoryRepository) Nearby(ctx context.Context, area Area) ([]RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.collect(limitOrDefault(area.Limit), func(p geo.Coordinates) (float64, bool) {
		d := geo.DistanceKm(area.Center, p)
		return d, d <= area.RadiusKm
	}), nil
}

// AlongCorridor implements Source.
func (r *InMemoryRepository) AlongCorridor(ctx context.Context, corridor CorridorArea) ([]RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	line := geo.NewCorridor(corridor.Start, corridor.End)
	return r.collect(limitOrDefault(corridor.Limit), func(p geo.Coordinates) (float64, bool) {
		along, offset := line.Project(p)
		inside := offset <= corridor.BufferKm &&
			along >= -corridor.BufferKm && along <= line.LengthKm()+corridor.BufferKm
		return along, inside
	}), nil
}

// collect returns matching records ordered by the key match returns.
func (r *InMemoryRepository) collect(limit int, match func(geo.Coordinates) (float64, bool)) []RawRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type keyed struct {
		rec RawRecord
		key float64
	}
	hits := make([]keyed, 0)
	for _, rec := range r.records {
		if rec.Lat == nil || rec.Lng == nil {
			continue
		}
		if key, ok := match(geo.Coordinates{Lat: *rec.Lat, Lng: *rec.Lng}); ok {
			hits = append(hits, keyed{rec: rec, key: key})
		}
	}
	slices.SortFunc(hits, func(a, b keyed) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.rec.ID, b.rec.ID)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]RawRecord, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out
}
