package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rationbridge/rationbridge-be/internal/auth"
	"github.com/rationbridge/rationbridge-be/internal/models"
	"github.com/rationbridge/rationbridge-be/internal/services"
)

// UserHandler handles HTTP requests for user profiles.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

type userWithProfile struct {
	models.Principal
	Profile *models.Profile `json:"profile"`
}

// Profile returns the caller's account plus their stored profile, if
// one exists.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	res, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	user, profile, err := h.service.GetProfile(r.Context(), res.User, res.IsMock)
	if err != nil {
		log.Error().Err(err).Str("user_id", res.User.ID).Msg("Failed to fetch profile")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userWithProfile{Principal: user, Profile: profile},
	})
}

// UpdateProfile upserts the caller's profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	res, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	var payload models.Profile
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), res.User, res.IsMock, payload)
	if err != nil {
		log.Error().Err(err).Str("user_id", res.User.ID).Msg("Failed to update profile")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"profile": profile,
	})
}

// List returns every known profile. Any authenticated caller may list;
// there is no server-side admin role.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListProfiles(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list profiles")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}
