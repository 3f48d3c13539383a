// Package middleware provides HTTP middleware for the VanRoute API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Header names read or written by this package.
const (
	HeaderRequestID  = "X-Request-Id"
	HeaderSessionKey = "X-Session-Key"
)

// maxSessionKeyLen bounds client supplied session keys.
const maxSessionKeyLen = 128

type requestIDKey struct{}

type sessionKey struct{}

// RequestID generates a unique request ID and adds it to the request context.
// The ID is also set in the X-Request-Id response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = "req_" + uuid.New().String()[:22]
		}

		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Session stores the client's X-Session-Key in the context. Requests that
// share a session key supersede each other: only the newest is answered.
// Keys are scoped to the authenticated user when there is one, so Session
// must run after Auth or OptionalAuth.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(HeaderSessionKey))
		if key == "" || len(key) > maxSessionKeyLen {
			next.ServeHTTP(w, r)
			return
		}
		if userID := GetUserID(r.Context()); userID != "" {
			key = userID + "/" + key
		}
		noteSessionKey(r.Context(), key)
		ctx := context.WithValue(r.Context(), sessionKey{}, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionKey retrieves the session key from the context.
func GetSessionKey(ctx context.Context) string {
	if key, ok := ctx.Value(sessionKey{}).(string); ok {
		return key
	}
	return ""
}
