package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vanroute/vanroute/internal/api/middleware"
	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/api/response"
	"github.com/vanroute/vanroute/internal/planner"
	"github.com/vanroute/vanroute/internal/recommend"
	"github.com/vanroute/vanroute/pkg/polyline"
)

// TripHandler handles multi-day trip helpers.
type TripHandler struct {
	service *recommend.Service
	logger  zerolog.Logger
	now     func() time.Time
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(service *recommend.Service, logger zerolog.Logger) *TripHandler {
	return &TripHandler{service: service, logger: logger, now: time.Now}
}

// SuggestWaypoints handles POST /v1/trips:suggest-waypoints.
func (h *TripHandler) SuggestWaypoints(w http.ResponseWriter, r *http.Request) {
	var req models.SuggestWaypointsRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	res, err := h.service.SuggestWaypoints(r.Context(), recommend.WaypointQuery{
		SessionKey:    middleware.GetSessionKey(r.Context()),
		UserID:        middleware.GetUserID(r.Context()),
		Start:         req.Start.Coordinates(),
		End:           req.End.Coordinates(),
		StopCount:     *req.StopCount,
		MaxDistanceKm: req.MaxDistanceKm,
		Preferences:   req.Preferences,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	seq := res.Sequence
	waypoints := seq.Waypoints
	if waypoints == nil {
		waypoints = []planner.Waypoint{}
	}
	response.JSON(w, r, http.StatusOK, models.SuggestWaypointsResponse{
		GeneratedAt: models.Timestamp(h.now()),
		Sequence:    res.Seq,
		Skipped:     res.Skipped,
		Start:       models.PointFrom(seq.Start),
		End:         models.PointFrom(seq.End),
		DirectKm:    seq.DirectKm,
		Waypoints:   waypoints,
		Polyline:    polyline.Encode(seq.Path()),
	})
}

// EvaluateFeasibility handles POST /v1/trips:evaluate-feasibility.
func (h *TripHandler) EvaluateFeasibility(w http.ResponseWriter, r *http.Request) {
	var req models.EvaluateFeasibilityRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	v, err := h.service.EvaluateFeasibility(*req.TotalDistanceKm, *req.DurationDays, req.AvgSpeedKmh)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.FeasibilityResponse{
		Level:          v.Level,
		EstimatedHours: v.EstimatedHours,
		HoursPerDay:    v.HoursPerDay,
		AvgSpeedKmh:    v.AvgSpeedKmh,
	})
}
