package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/api/middleware"
	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/api/response"
)

// requestWithContext runs a request through RequestID so its context
// carries an ID.
func requestWithContext(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	var processed *http.Request
	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, strings.NewReader(body)))
	require.NotNil(t, processed)
	return processed
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	var p models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestJSON_IncludesRequestID(t *testing.T) {
	req := requestWithContext(t, http.MethodGet, "/v1/ops/health", "")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"status": "OK"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, middleware.GetRequestID(req.Context()), rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestJSON_NilData(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody), http.StatusOK, nil)

	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Request-Id"))
}

func TestNoContent(t *testing.T) {
	req := requestWithContext(t, http.MethodDelete, "/v1/me/preferences", "")
	rec := httptest.NewRecorder()

	response.NoContent(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestDecode(t *testing.T) {
	type body struct {
		EnvelopeKm float64 `json:"envelopeKm"`
	}

	tests := []struct {
		name       string
		payload    string
		ok         bool
		wantDetail string
		wantField  string
	}{
		{"valid", `{"envelopeKm": 120}`, true, "", ""},
		{"empty", ``, false, "request body is empty", ""},
		{"malformed", `{"envelopeKm": }`, false, "malformed JSON", ""},
		{"wrong type", `{"envelopeKm": "far"}`, false, "invalid JSON body", "envelopeKm"},
		{"unknown field", `{"envelope": 120}`, false, "unknown field", ""},
		{"trailing object", `{"envelopeKm": 1}{"envelopeKm": 2}`, false, "single JSON object", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithContext(t, http.MethodPost, "/v1/plans:generate", tt.payload)
			rec := httptest.NewRecorder()

			var dst body
			ok := response.Decode(rec, req, &dst)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, 120.0, dst.EnvelopeKm)
				return
			}

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			p := decodeProblem(t, rec)
			assert.Contains(t, p.Detail, tt.wantDetail)
			assert.Equal(t, "/v1/plans:generate", p.Instance)
			if tt.wantField != "" {
				require.Len(t, p.Errors, 1)
				assert.Equal(t, tt.wantField, p.Errors[0].Field)
			}
		})
	}
}

func TestDecode_BodyTooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("a", response.MaxBodyBytes) + `"}`
	req := requestWithContext(t, http.MethodPost, "/v1/plans:replace-item", big)
	rec := httptest.NewRecorder()

	var dst struct {
		Name string `json:"name"`
	}
	assert.False(t, response.Decode(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeProblem(t, rec).Detail, "exceeds")
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
		typ    string
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) { response.BadRequest(w, r, "bad", nil) }, http.StatusBadRequest, models.ProblemTypeValidation},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) { response.Unauthorized(w, r, "who") }, http.StatusUnauthorized, models.ProblemTypeUnauthorized},
		{"not found", func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "gone") }, http.StatusNotFound, models.ProblemTypeNotFound},
		{"conflict", func(w http.ResponseWriter, r *http.Request) { response.Conflict(w, r, "dup") }, http.StatusConflict, models.ProblemTypeConflict},
		{"superseded", response.Superseded, http.StatusConflict, models.ProblemTypeSuperseded},
		{"unprocessable", func(w http.ResponseWriter, r *http.Request) { response.Unprocessable(w, r, "nope") }, http.StatusUnprocessableEntity, models.ProblemTypeUnprocessable},
		{"internal", func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "boom") }, http.StatusInternalServerError, models.ProblemTypeInternal},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "down", 5) }, http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithContext(t, http.MethodPost, "/v1/plans:generate", "")
			rec := httptest.NewRecorder()

			tt.write(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			p := decodeProblem(t, rec)
			assert.Equal(t, tt.typ, p.Type)
			assert.Equal(t, middleware.GetRequestID(req.Context()), p.TraceID)
			assert.Equal(t, "/v1/plans:generate", p.Instance)
		})
	}
}

func TestServiceUnavailable_RetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	response.ServiceUnavailable(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody), "down", 30)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}
