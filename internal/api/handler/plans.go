package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vanroute/vanroute/internal/api/middleware"
	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/api/response"
	"github.com/vanroute/vanroute/internal/geo"
	"github.com/vanroute/vanroute/internal/recommend"
)

// PlanHandler handles day plan generation and editing.
type PlanHandler struct {
	service *recommend.Service
	logger  zerolog.Logger
	now     func() time.Time
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(service *recommend.Service, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{service: service, logger: logger, now: time.Now}
}

// GeneratePlans handles POST /v1/plans:generate.
func (h *PlanHandler) GeneratePlans(w http.ResponseWriter, r *http.Request) {
	var req models.GeneratePlansRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	q := recommend.PlanQuery{
		SessionKey:  middleware.GetSessionKey(r.Context()),
		UserID:      middleware.GetUserID(r.Context()),
		Position:    req.Position.Coordinates(),
		EnvelopeKm:  *req.EnvelopeKm,
		Destination: pointPtr(req.Destination),
		Preferences: req.Preferences,
	}

	res, err := h.service.GeneratePlans(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.GeneratePlansResponse{
		GeneratedAt: models.Timestamp(h.now()),
		Sequence:    res.Sequence,
		Skipped:     res.Skipped,
		Plans:       res.Plans,
	})
}

// ReplaceItem handles POST /v1/plans:replace-item.
func (h *PlanHandler) ReplaceItem(w http.ResponseWriter, r *http.Request) {
	var req models.ReplaceItemRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	plan, err := h.service.ReplaceItem(*req.Plan, req.Category, *req.Index, *req.Candidate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.PlanResponse{Plan: plan})
}

// RemoveItem handles POST /v1/plans:remove-item.
func (h *PlanHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req models.RemoveItemRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	plan, err := h.service.RemoveItem(*req.Plan, req.Category, req.ItemID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.PlanResponse{Plan: plan})
}

// ConfirmOvernight handles POST /v1/plans:confirm-overnight.
func (h *PlanHandler) ConfirmOvernight(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmOvernightRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	plan, err := h.service.ConfirmOvernight(*req.Plan, req.ItemID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.PlanResponse{Plan: plan})
}

func pointPtr(p *models.Point) *geo.Coordinates {
	if p == nil {
		return nil
	}
	c := p.Coordinates()
	return &c
}
