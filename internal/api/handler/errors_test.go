package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/planner"
	"github.com/vanroute/vanroute/internal/profile"
	"github.com/vanroute/vanroute/internal/recommend"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		problemType string
	}{
		{"input error", &planner.InputError{Field: "envelopeKm", Reason: "must be non-negative"}, http.StatusBadRequest, models.ProblemTypeValidation},
		{"wrapped input error", fmt.Errorf("engine: %w", &planner.InputError{Field: "start"}), http.StatusBadRequest, models.ProblemTypeValidation},
		{"superseded", recommend.ErrSuperseded, http.StatusConflict, models.ProblemTypeSuperseded},
		{"source unavailable", fmt.Errorf("%w: qdrant down", recommend.ErrCandidateSourceUnavailable), http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
		{"kind mismatch", planner.ErrKindMismatch, http.StatusUnprocessableEntity, models.ProblemTypeUnprocessable},
		{"duplicate", planner.ErrDuplicateItem, http.StatusConflict, models.ProblemTypeConflict},
		{"item not found", planner.ErrItemNotFound, http.StatusNotFound, models.ProblemTypeNotFound},
		{"profile not found", profile.ErrProfileNotFound, http.StatusNotFound, models.ProblemTypeNotFound},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, models.ProblemTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/plans:generate", http.NoBody)
			w := httptest.NewRecorder()

			writeError(w, req, zerolog.Nop(), tt.err)

			require.Equal(t, tt.status, w.Code)
			var p models.Problem
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
			assert.Equal(t, tt.problemType, p.Type)
		})
	}
}

func TestWriteError_InputErrorField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/trips:suggest-waypoints", http.NoBody)
	w := httptest.NewRecorder()

	writeError(w, req, zerolog.Nop(), &planner.InputError{Field: "stopCount", Reason: "must be within [0,30], got 99"})

	var p models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "stopCount", p.Errors[0].Field)
	assert.Equal(t, models.CodeInvalid, p.Errors[0].Code)
}

func TestWriteError_RetryAfter(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/plans:generate", http.NoBody)
	w := httptest.NewRecorder()

	writeError(w, req, zerolog.Nop(), recommend.ErrCandidateSourceUnavailable)

	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}

func TestWriteError_Canceled(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/plans:generate", http.NoBody)
	w := httptest.NewRecorder()

	writeError(w, req, zerolog.Nop(), context.Canceled)

	assert.Zero(t, w.Body.Len())
}
