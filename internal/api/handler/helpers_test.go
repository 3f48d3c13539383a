package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/planner"
	"github.com/vanroute/vanroute/internal/recommend"
)

func ptr[T any](v T) *T { return &v }

func record(id, sourceType string, lat, lng float64, tags ...string) candidate.RawRecord {
	return candidate.RawRecord{
		ID:         id,
		Name:       id,
		SourceType: sourceType,
		Lat:        ptr(lat),
		Lng:        ptr(lng),
		Tags:       tags,
	}
}

// Around Utrecht and along the A2 towards Den Bosch.
func testRecords() []candidate.RawRecord {
	return []candidate.RawRecord{
		record("dom-tower", "LANDMARK", 52.0908, 5.1217, "history"),
		record("botanic-garden", "PARK", 52.0870, 5.1770, "nature"),
		record("camp-bunnik", "CAMPSITE", 52.0650, 5.1980),
		record("fort-vuren", "FORT", 51.8320, 5.2060, "history"),
		record("camp-zaltbommel", "CAMPSITE", 51.8100, 5.2500),
		{ID: "no-coordinates", SourceType: "MUSEUM"},
	}
}

// rawSource serves an in-memory repository plus records that a real
// upstream might return without coordinates.
type rawSource struct {
	*candidate.InMemoryRepository
	unlocated []candidate.RawRecord
}

func newRawSource(records []candidate.RawRecord) *rawSource {
	src := &rawSource{InMemoryRepository: candidate.NewInMemoryRepository(records...)}
	for _, rec := range records {
		if rec.Lat == nil || rec.Lng == nil {
			src.unlocated = append(src.unlocated, rec)
		}
	}
	return src
}

func (s *rawSource) Nearby(ctx context.Context, area candidate.Area) ([]candidate.RawRecord, error) {
	out, err := s.InMemoryRepository.Nearby(ctx, area)
	if err != nil {
		return nil, err
	}
	return append(out, s.unlocated...), nil
}

func (s *rawSource) AlongCorridor(ctx context.Context, area candidate.CorridorArea) ([]candidate.RawRecord, error) {
	out, err := s.InMemoryRepository.AlongCorridor(ctx, area)
	if err != nil {
		return nil, err
	}
	return append(out, s.unlocated...), nil
}

func newTestService(t *testing.T, src candidate.Source) *recommend.Service {
	t.Helper()
	engine, err := planner.New(planner.DefaultConfig())
	require.NoError(t, err)
	svc, err := recommend.NewService(recommend.ServiceConfig{
		Engine: engine,
		Source: src,
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	var p models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}
