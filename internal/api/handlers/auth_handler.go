package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rationbridge/rationbridge-be/internal/auth"
	"github.com/rationbridge/rationbridge-be/internal/identity"
)

// AuthHandler handles registration, login, logout and identity lookup.
type AuthHandler struct {
	authn *identity.Authenticator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authn *identity.Authenticator) *AuthHandler {
	return &AuthHandler{authn: authn}
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration with the primary-then-mock
// fallback.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload identity.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.Email == "" || payload.Password == "" || payload.FullName == "" || payload.UserType == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: email, password, full_name, user_type")
		return
	}

	outcome, err := h.authn.Register(r.Context(), payload)
	if err != nil {
		log.Error().Err(err).Str("email", payload.Email).Msg("Registration failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if outcome.RequiresConfirmation {
		writeJSON(w, http.StatusCreated, map[string]any{
			"success":              true,
			"message":              "Registration successful! Please check your email to confirm your account before logging in.",
			"user":                 outcome.User,
			"requiresConfirmation": true,
		})
		return
	}

	message := "User registered successfully"
	if outcome.MockMode {
		message += " (mock mode)"
	}
	resp := map[string]any{
		"success": true,
		"message": message,
		"user":    outcome.User,
		"token":   outcome.Token,
	}
	if outcome.Session != nil {
		resp["session"] = outcome.Session
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles user authentication with the primary-then-mock fallback.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.Email == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: email, password")
		return
	}

	outcome, err := h.authn.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	message := "Login successful"
	if outcome.MockMode {
		message += " (mock mode)"
	}
	resp := map[string]any{
		"success": true,
		"message": message,
		"user":    outcome.User,
		"token":   outcome.Token,
	}
	if outcome.Session != nil {
		resp["session"] = outcome.Session
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout revokes the provider session behind the caller's token, when
// one is supplied.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
	if err := h.authn.Logout(r.Context(), token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me returns the principal resolved from the bearer token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	res, ok := auth.FromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve auth resolution from context")
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": res.User})
}
