package handler

import (
	"net/http"

	"agrigenie/internal/model"
	"agrigenie/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles cart, checkout and wishlist requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// View handles GET /api/cart.
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), actor(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), actor(r)); err != nil {
		handleError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req model.AddCartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	view, err := h.service.AddItem(r.Context(), actor(r), req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// UpdateItem handles PUT /api/cart/items/{listing_id}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "listing_id", h.logger)
	if !ok {
		return
	}
	var req model.UpdateCartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	view, err := h.service.UpdateItem(r.Context(), actor(r), listingID, req.Quantity)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// RemoveItem handles DELETE /api/cart/items/{listing_id}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "listing_id", h.logger)
	if !ok {
		return
	}

	view, err := h.service.RemoveItem(r.Context(), actor(r), listingID)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// Checkout handles POST /api/cart/checkout.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.Checkout(r.Context(), actor(r), req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, resp, h.logger)
}

// Wishlist handles GET /api/wishlist.
func (h *CartHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Wishlist(r.Context(), actor(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, items, h.logger)
}

// AddToWishlist handles POST /api/wishlist.
func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req model.AddWishlistItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	items, err := h.service.AddToWishlist(r.Context(), actor(r), req.ListingID)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, items, h.logger)
}

// RemoveFromWishlist handles DELETE /api/wishlist/{listing_id}.
func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "listing_id", h.logger)
	if !ok {
		return
	}

	items, err := h.service.RemoveFromWishlist(r.Context(), actor(r), listingID)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, items, h.logger)
}
