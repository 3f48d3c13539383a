package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// requestFields collects values that inner middleware learns about the
// request, so the outer logger can report them.
type requestFields struct {
	userID     string
	sessionKey string
}

type requestFieldsKey struct{}

func fieldsFrom(ctx context.Context) *requestFields {
	f, _ := ctx.Value(requestFieldsKey{}).(*requestFields)
	return f
}

func noteUserID(ctx context.Context, userID string) {
	if f := fieldsFrom(ctx); f != nil {
		f.userID = userID
	}
}

func noteSessionKey(ctx context.Context, key string) {
	if f := fieldsFrom(ctx); f != nil {
		f.sessionKey = key
	}
}

// Logger returns a middleware that logs HTTP requests. Server errors log at
// error level, client errors at warn.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newStatusRecorder(w)
			fields := &requestFields{}
			ctx := context.WithValue(r.Context(), requestFieldsKey{}, fields)
			r = r.WithContext(ctx)

			next.ServeHTTP(wrapped, r)

			event := log.Info()
			switch {
			case wrapped.statusCode >= 500:
				event = log.Error()
			case wrapped.statusCode >= 400:
				event = log.Warn()
			}

			if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
				event = event.
					Str("trace_id", spanCtx.TraceID().String()).
					Str("span_id", spanCtx.SpanID().String())
			}
			if fields.userID != "" {
				event = event.Str("user_id", fields.userID)
			}
			if fields.sessionKey != "" {
				event = event.Str("session_key", fields.sessionKey)
			}

			event.
				Str("request_id", GetRequestID(ctx)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", wrapped.statusCode).
				Int64("bytes", wrapped.written).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Msg("request completed")
		})
	}
}
