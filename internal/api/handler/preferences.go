package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vanroute/vanroute/internal/api/middleware"
	"github.com/vanroute/vanroute/internal/api/models"
	"github.com/vanroute/vanroute/internal/api/response"
	"github.com/vanroute/vanroute/internal/planner"
	"github.com/vanroute/vanroute/internal/profile"
)

// PreferencesHandler handles the caller's stored planning preferences.
type PreferencesHandler struct {
	profiles *profile.Service
	logger   zerolog.Logger
}

// NewPreferencesHandler creates a new PreferencesHandler.
func NewPreferencesHandler(profiles *profile.Service, logger zerolog.Logger) *PreferencesHandler {
	return &PreferencesHandler{profiles: profiles, logger: logger}
}

// GetPreferences handles GET /v1/me/preferences.
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, preferencesResponse(p))
}

// UpdatePreferences handles PUT /v1/me/preferences.
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	var prefs planner.Preferences
	if !response.Decode(w, r, &prefs) {
		return
	}

	p, err := h.profiles.Update(r.Context(), userID, prefs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, preferencesResponse(p))
}

// DeletePreferences handles DELETE /v1/me/preferences.
func (h *PreferencesHandler) DeletePreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return
	}

	if err := h.profiles.Delete(r.Context(), userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}

func preferencesResponse(p *profile.Profile) models.PreferencesResponse {
	return models.PreferencesResponse{
		UserID:      p.UserID,
		Preferences: p.Preferences,
		CreatedAt:   models.TimestampPtr(p.CreatedAt),
		UpdatedAt:   models.TimestampPtr(p.UpdatedAt),
	}
}
