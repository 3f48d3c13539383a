package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vanroute/vanroute/internal/api/middleware"
	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/api/response"
	"github.com/vanroute/vanroute/internal/planner"
	"github.com/vanroute/vanroute/internal/profile"
	"github.com/vanroute/vanroute/internal/recommend"
)

// sourceRetryAfter is the Retry-After hint, in seconds, sent when no
// candidate source answered.
const sourceRetryAfter = 30

// writeError maps service and engine errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var inputErr *planner.InputError
	switch {
	case errors.As(err, &inputErr):
		response.BadRequest(w, r, "validation failed", []models.FieldError{{
			Field:   inputErr.Field,
			Message: inputErr.Reason,
			Code:    models.CodeInvalid,
		}})
	case errors.Is(err, planner.ErrInvalidInput):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, recommend.ErrSuperseded):
		response.Superseded(w, r)
	case errors.Is(err, recommend.ErrCandidateSourceUnavailable):
		log.Warn().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("candidate sources unavailable")
		response.ServiceUnavailable(w, r, "candidate sources are unavailable, try again shortly", sourceRetryAfter)
	case errors.Is(err, planner.ErrKindMismatch):
		response.Unprocessable(w, r, err.Error())
	case errors.Is(err, planner.ErrDuplicateItem):
		response.Conflict(w, r, err.Error())
	case errors.Is(err, planner.ErrItemNotFound):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, profile.ErrProfileNotFound):
		response.NotFound(w, r, "no preferences stored")
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the response.
		log.Debug().
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("request cancelled")
	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, r, "internal server error")
	}
}
