package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rationbridge/rationbridge-be/internal/auth"
	"github.com/rationbridge/rationbridge-be/internal/models"
	"github.com/rationbridge/rationbridge-be/internal/services"
)

// FoodHandler handles HTTP requests for the food marketplace.
type FoodHandler struct {
	service services.FoodServiceProvider
	events  services.EventServiceProvider
}

// NewFoodHandler creates a new FoodHandler.
func NewFoodHandler(service services.FoodServiceProvider, events services.EventServiceProvider) *FoodHandler {
	return &FoodHandler{service: service, events: events}
}

// CreatePayload defines the structure for new listings.
type CreatePayload struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
	ExpiryDate     string `json:"expiry_date"`
	PickupLocation string `json:"pickup_location"`
	Category       string `json:"category"`
	DietaryInfo    string `json:"dietary_info"`
}

// List returns every visible listing.
func (h *FoodHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list food items")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if items == nil {
		items = []models.FoodItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"food_items": items,
	})
}

// Create posts a new listing as the authenticated principal.
func (h *FoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	res, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	var payload CreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Title == "" || payload.Description == "" || payload.Quantity == 0 || payload.PickupLocation == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: title, description, quantity, pickup_location")
		return
	}

	item := models.FoodItem{
		Title:          payload.Title,
		Description:    payload.Description,
		Quantity:       payload.Quantity,
		ExpiryDate:     payload.ExpiryDate,
		PickupLocation: payload.PickupLocation,
		Category:       payload.Category,
		DietaryInfo:    payload.DietaryInfo,
	}
	created, err := h.service.Create(r.Context(), res.User, res.IsMock, item)
	if err != nil {
		log.Error().Err(err).Str("user_id", res.User.ID).Msg("Failed to create food item")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.events.Record("item.created", "info",
		fmt.Sprintf("New food item '%s' posted", created.Title), &created.ID)

	message := "Food item created successfully"
	if res.IsMock {
		message += " (mock mode)"
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"message":   message,
		"food_item": created,
	})
}

// Get returns a single listing.
func (h *FoodHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Food item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"food_item": item})
}

// Update modifies a listing owned by the caller.
func (h *FoodHandler) Update(w http.ResponseWriter, r *http.Request) {
	res, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	var upd models.FoodItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	item, err := h.service.Update(r.Context(), res.User, id, upd)
	switch err {
	case nil:
	case services.ErrNotFound:
		writeError(w, http.StatusNotFound, "Food item not found")
		return
	case services.ErrForbidden:
		writeError(w, http.StatusForbidden, "You can only update your own food items")
		return
	default:
		log.Error().Err(err).Str("item_id", id).Msg("Failed to update food item")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Food item updated successfully",
		"food_item": item,
	})
}

// Delete removes a listing owned by the caller.
func (h *FoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	id := chi.URLParam(r, "id")
	switch err := h.service.Delete(r.Context(), res.User, id); err {
	case nil:
	case services.ErrNotFound:
		writeError(w, http.StatusNotFound, "Food item not found")
		return
	case services.ErrForbidden:
		writeError(w, http.StatusForbidden, "You can only delete your own food items")
		return
	default:
		log.Error().Err(err).Str("item_id", id).Msg("Failed to delete food item")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Food item deleted successfully"})
}

// Request files a claim against an available listing.
func (h *FoodHandler) Request(w http.ResponseWriter, r *http.Request) {
	res, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	// The message is optional; an empty or absent body is fine.
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	id := chi.URLParam(r, "id")
	req, err := h.service.RequestItem(r.Context(), res.User, id, payload.Message)
	switch err {
	case nil:
	case services.ErrNotFound:
		writeError(w, http.StatusNotFound, "Food item not found")
		return
	case services.ErrNotAvailable:
		writeError(w, http.StatusBadRequest, "Food item is not available")
		return
	default:
		log.Error().Err(err).Str("item_id", id).Msg("Failed to create food request")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.events.Record("request.created", "info",
		fmt.Sprintf("New request against food item '%s'", id), &id)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Food request submitted successfully",
		"request": req,
	})
}

// ListRequests returns all requests, newest first.
func (h *FoodHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListRequests(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list food requests")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if requests == nil {
		requests = []models.FoodRequest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// ListItemRequests returns the requests for one listing, owner only.
func (h *FoodHandler) ListItemRequests(w http.ResponseWriter, r *http.Request) {
	res, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	id := chi.URLParam(r, "id")
	requests, err := h.service.ListItemRequests(r.Context(), res.User, id)
	switch err {
	case nil:
	case services.ErrNotFound:
		writeError(w, http.StatusNotFound, "Food item not found")
		return
	case services.ErrForbidden:
		writeError(w, http.StatusForbidden, "You can only view requests for your own food items")
		return
	default:
		log.Error().Err(err).Str("item_id", id).Msg("Failed to list food item requests")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if requests == nil {
		requests = []models.FoodRequest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}
