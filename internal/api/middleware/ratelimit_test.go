package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vanroute/vanroute/internal/api/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitByIP(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 3, WindowLength: time.Minute}
	handler := middleware.RateLimitByIP(cfg)(okHandler())

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/plans:generate", http.NoBody)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := range 3 {
		assert.Equal(t, http.StatusOK, send("10.0.0.1").Code, "request %d should be allowed", i+1)
	}

	rec := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code, "other clients keep their own budget")
}

func TestRateLimitByUser(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute}
	handler := middleware.OptionalAuth(newTokenService())(middleware.RateLimitByUser(cfg)(okHandler()))

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodPut, "/v1/me/preferences", http.NoBody)
		req.RemoteAddr = "10.1.0.1:12345"
		req.Header.Set("Authorization", "Bearer "+issueToken(t, userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("usr_a"))
	assert.Equal(t, http.StatusTooManyRequests, send("usr_a"))
	assert.Equal(t, http.StatusOK, send("usr_b"), "same IP, different user")
}
