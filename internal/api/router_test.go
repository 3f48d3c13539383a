package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/api"
	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/auth"
	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/planner"
	"github.com/vanroute/vanroute/internal/profile"
	"github.com/vanroute/vanroute/internal/recommend"
)

const testUserID = "usr_testuser123"

func testTokenService() *auth.TokenService {
	return auth.NewTokenService(auth.Config{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://auth.vanroute.app",
		Audience:   "vanroute-api",
	})
}

func ptr[T any](v T) *T { return &v }

func testRecords() []candidate.RawRecord {
	rec := func(id, sourceType string, lat, lng float64, tags ...string) candidate.RawRecord {
		return candidate.RawRecord{ID: id, Name: id, SourceType: sourceType, Lat: ptr(lat), Lng: ptr(lng), Tags: tags}
	}
	return []candidate.RawRecord{
		rec("dom-tower", "LANDMARK", 52.0908, 5.1217, "history"),
		rec("botanic-garden", "PARK", 52.0870, 5.1770, "nature"),
		rec("castle-de-haar", "CASTLE", 52.1211, 4.9844, "history"),
		rec("camp-bunnik", "CAMPSITE", 52.0650, 5.1980),
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.New(io.Discard)

	profiles := profile.NewService(profile.ServiceConfig{
		Repository: profile.NewInMemoryRepository(),
		Logger:     logger,
	})
	engine, err := planner.New(planner.DefaultConfig())
	require.NoError(t, err)
	svc, err := recommend.NewService(recommend.ServiceConfig{
		Engine:   engine,
		Source:   candidate.NewInMemoryRepository(testRecords()...),
		Profiles: profiles,
		Logger:   logger,
	})
	require.NoError(t, err)

	return api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2026-01-01T00:00:00Z",
		Logger:    logger,
		Tokens:    testTokenService(),
		Recommend: svc,
		Profiles:  profiles,
	})
}

// addAuthHeader adds a valid Bearer token to the request.
func addAuthHeader(t *testing.T, req *http.Request) {
	t.Helper()
	token, _, err := testTokenService().Issue(testUserID, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var generateBody = map[string]any{
	"position":   map[string]float64{"lat": 52.0907, "lng": 5.1214},
	"envelopeKm": 30,
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SystemStatus_RequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	addAuthHeader(t, req)
	w = serve(router, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
}

func TestRouter_GeneratePlans_Anonymous(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, jsonRequest(t, http.MethodPost, "/v1/plans:generate", generateBody))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.GeneratePlansResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Plans)
	assert.Equal(t, "dom-tower", resp.Plans[0].Stops[0].ID)
}

func TestRouter_GeneratePlans_InvalidToken(t *testing.T) {
	router := newTestRouter(t)

	req := jsonRequest(t, http.MethodPost, "/v1/plans:generate", generateBody)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := serve(router, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_GeneratePlans_UnsupportedMediaType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/plans:generate", strings.NewReader("position=52,5"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(router, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_GeneratePlans_UsesStoredPreferences(t *testing.T) {
	router := newTestRouter(t)

	put := jsonRequest(t, http.MethodPut, "/v1/me/preferences", planner.Preferences{Interests: []string{"nature"}})
	addAuthHeader(t, put)
	w := serve(router, put)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req := jsonRequest(t, http.MethodPost, "/v1/plans:generate", generateBody)
	addAuthHeader(t, req)
	req.Header.Set("X-Session-Key", "map-view")
	w = serve(router, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.GeneratePlansResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "botanic-garden", resp.Plans[0].Stops[0].ID)
	assert.NotZero(t, resp.Sequence)
}

func TestRouter_SuggestWaypoints(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, jsonRequest(t, http.MethodPost, "/v1/trips:suggest-waypoints", map[string]any{
		"start":         map[string]float64{"lat": 52.3676, "lng": 4.9041},
		"end":           map[string]float64{"lat": 51.6978, "lng": 5.3037},
		"stopCount":     2,
		"maxDistanceKm": 20,
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.SuggestWaypointsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Polyline)
}

func TestRouter_EvaluateFeasibility(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, jsonRequest(t, http.MethodPost, "/v1/trips:evaluate-feasibility", map[string]any{
		"totalDistanceKm": 1200,
		"durationDays":    3,
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.FeasibilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, planner.FeasibilityTight, resp.Level)
}

func TestRouter_Preferences(t *testing.T) {
	router := newTestRouter(t)

	get := httptest.NewRequest(http.MethodGet, "/v1/me/preferences", http.NoBody)
	addAuthHeader(t, get)
	w := serve(router, get)
	assert.Equal(t, http.StatusNotFound, w.Code)

	put := jsonRequest(t, http.MethodPut, "/v1/me/preferences", map[string]any{
		"interests": []string{" Nature ", "history"},
		"pace":      "SLOW",
	})
	addAuthHeader(t, put)
	w = serve(router, put)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	get = httptest.NewRequest(http.MethodGet, "/v1/me/preferences", http.NoBody)
	addAuthHeader(t, get)
	w = serve(router, get)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PreferencesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testUserID, resp.UserID)
	assert.Equal(t, planner.PaceSlow, resp.Preferences.Pace)
	assert.Contains(t, resp.Preferences.Interests, "nature")
	assert.NotNil(t, resp.CreatedAt)

	del := httptest.NewRequest(http.MethodDelete, "/v1/me/preferences", http.NoBody)
	addAuthHeader(t, del)
	w = serve(router, del)
	assert.Equal(t, http.StatusNoContent, w.Code)

	get = httptest.NewRequest(http.MethodGet, "/v1/me/preferences", http.NoBody)
	addAuthHeader(t, get)
	w = serve(router, get)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Preferences_Validation(t *testing.T) {
	router := newTestRouter(t)

	put := jsonRequest(t, http.MethodPut, "/v1/me/preferences", map[string]any{"pace": "WARP"})
	addAuthHeader(t, put)
	w := serve(router, put)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "preferences.pace", problem.Errors[0].Field)
}

func TestRouter_Preferences_RequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/me/preferences", http.NoBody))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody))

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := serve(router, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
