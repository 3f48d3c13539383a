package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/auth"
)

// TokenValidator resolves a bearer token to a user ID.
type TokenValidator interface {
	Validate(token string) (string, error)
}

type userIDKey struct{}

// errNoToken is returned by bearerToken when no Authorization header is sent.
var errNoToken = errors.New("missing authorization header")

// Auth rejects requests without a valid bearer token.
func Auth(v TokenValidator) func(http.Handler) http.Handler {
	return authenticate(v, true)
}

// OptionalAuth identifies the caller when a bearer token is present and lets
// anonymous requests through. A token that is present but invalid is still
// rejected.
func OptionalAuth(v TokenValidator) func(http.Handler) http.Handler {
	return authenticate(v, false)
}

func authenticate(v TokenValidator, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if errors.Is(err, errNoToken) && !required {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				writeUnauthorized(w, r, err.Error())
				return
			}

			userID, err := v.Validate(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrAccessTokenExpired):
					writeUnauthorized(w, r, "access token has expired")
				case errors.Is(err, auth.ErrInvalidAccessToken):
					writeUnauthorized(w, r, "invalid access token")
				default:
					writeUnauthorized(w, r, "authentication failed")
				}
				return
			}

			noteUserID(r.Context(), userID)
			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoToken
	}

	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

// writeUnauthorized is here rather than in the response package, which
// imports this one.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="vanroute"`)
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetUserID retrieves the authenticated user ID from the context.
// Returns an empty string if not authenticated.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}
