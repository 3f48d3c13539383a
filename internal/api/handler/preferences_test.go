package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/api/handler"
	"github.com/vanroute/vanroute/internal/api/middleware"
	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/planner"
	"github.com/vanroute/vanroute/internal/profile"
)

// staticTokens accepts tokens of the form "user:<id>".
type staticTokens struct{}

func (staticTokens) Validate(token string) (string, error) {
	if id, ok := strings.CutPrefix(token, "user:"); ok && id != "" {
		return id, nil
	}
	return "", errors.New("bad token")
}

func newPreferencesHandler() *handler.PreferencesHandler {
	profiles := profile.NewService(profile.ServiceConfig{
		Repository: profile.NewInMemoryRepository(),
		Logger:     zerolog.Nop(),
	})
	return handler.NewPreferencesHandler(profiles, zerolog.Nop())
}

func serveAs(h http.HandlerFunc, user, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/v1/me/preferences", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer user:"+user)
	}
	w := httptest.NewRecorder()
	middleware.OptionalAuth(staticTokens{})(h).ServeHTTP(w, req)
	return w
}

func TestPreferencesHandler_Lifecycle(t *testing.T) {
	h := newPreferencesHandler()

	w := serveAs(h.GetPreferences, "u1", http.MethodGet, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serveAs(h.UpdatePreferences, "u1", http.MethodPut, `{"interests":["History"," nature "],"pace":"SLOW"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.PreferencesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, planner.PaceSlow, resp.Preferences.Pace)
	assert.Len(t, resp.Preferences.Interests, 2)
	assert.NotNil(t, resp.CreatedAt)

	w = serveAs(h.GetPreferences, "u1", http.MethodGet, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Another user sees nothing.
	w = serveAs(h.GetPreferences, "u2", http.MethodGet, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serveAs(h.DeletePreferences, "u1", http.MethodDelete, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serveAs(h.GetPreferences, "u1", http.MethodGet, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreferencesHandler_RejectsInvalid(t *testing.T) {
	h := newPreferencesHandler()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown pace", `{"pace":"SPRINT"}`, "preferences.pace"},
		{"unknown budget", `{"budgetCeiling":"LUXURY"}`, "preferences.budgetCeiling"},
		{"negative vehicle", `{"vehicle":{"lengthM":-1}}`, "preferences.vehicle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveAs(h.UpdatePreferences, "u1", http.MethodPut, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			p := decodeProblem(t, w)
			require.Len(t, p.Errors, 1)
			assert.Equal(t, tt.field, p.Errors[0].Field)
		})
	}
}

func TestPreferencesHandler_RequiresUser(t *testing.T) {
	h := newPreferencesHandler()

	for _, hf := range []http.HandlerFunc{h.GetPreferences, h.UpdatePreferences, h.DeletePreferences} {
		w := serveAs(hf, "", http.MethodGet, `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}
