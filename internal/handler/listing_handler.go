package handler

import (
	"net/http"
	"strconv"

	"agrigenie/internal/model"
	"agrigenie/internal/service"

	"github.com/rs/zerolog"
)

// ListingHandler handles marketplace listing requests.
type ListingHandler struct {
	service service.ListingService
	logger  zerolog.Logger
}

// NewListingHandler creates a new listing handler.
func NewListingHandler(service service.ListingService, logger zerolog.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		logger:  logger.With().Str("handler", "listing").Logger(),
	}
}

// List handles GET /api/marketplace/listings.
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.ListingQuery{
		AvailableOnly: true,
		CropName:      q.Get("crop_name"),
	}

	if v := q.Get("farmer_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid farmer_only parameter", h.logger)
			return
		}
		query.FarmerOnly = b
	}
	if v := q.Get("available_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid available_only parameter", h.logger)
			return
		}
		query.AvailableOnly = b
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid limit parameter", h.logger)
			return
		}
		query.Limit = limit
	}

	listings, err := h.service.List(r.Context(), actor(r), query)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, listings, h.logger)
}

// MyListings handles GET /api/marketplace/listings/my-listings.
func (h *ListingHandler) MyListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.MyListings(r.Context(), actor(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, listings, h.logger)
}

// Create handles POST /api/marketplace/listings.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.ListingInput
	if !decodeJSON(w, r, &input, h.logger) {
		return
	}

	listing, err := h.service.Create(r.Context(), actor(r), input)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, listing, h.logger)
}

// Get handles GET /api/marketplace/listings/{id}.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	listing, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, listing, h.logger)
}

// Update handles PUT /api/marketplace/listings/{id}.
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var input model.ListingInput
	if !decodeJSON(w, r, &input, h.logger) {
		return
	}

	listing, err := h.service.Update(r.Context(), actor(r), id, input)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, listing, h.logger)
}

// Toggle handles POST /api/marketplace/listings/{id}/toggle.
func (h *ListingHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	listing, err := h.service.ToggleAvailability(r.Context(), actor(r), id)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, listing, h.logger)
}

// Delete handles DELETE /api/marketplace/listings/{id}.
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	result, err := h.service.Delete(r.Context(), actor(r), id)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result, h.logger)
}
