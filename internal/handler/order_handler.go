package handler

import (
	"net/http"

	"agrigenie/internal/model"
	"agrigenie/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderHandler handles marketplace order requests.
type OrderHandler struct {
	service service.OrderService
	stats   service.StatsService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, stats service.StatsService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		stats:   stats,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// placeOrderBody accepts the older crop_listing_id field name as well.
// Client-supplied totals are not read.
type placeOrderBody struct {
	ListingID     uuid.UUID       `json:"listing_id"`
	CropListingID uuid.UUID       `json:"crop_listing_id"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// Create handles POST /api/marketplace/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body placeOrderBody
	if !decodeJSON(w, r, &body, h.logger) {
		return
	}

	req := model.PlaceOrderRequest{ListingID: body.ListingID, Quantity: body.Quantity}
	if req.ListingID == uuid.Nil {
		req.ListingID = body.CropListingID
	}
	if req.ListingID == uuid.Nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "listing_id is required", h.logger)
		return
	}

	order, err := h.service.Place(r.Context(), actor(r), req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, order, h.logger)
}

// List handles GET /api/marketplace/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context(), actor(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders, h.logger)
}

// GetByID handles GET /api/marketplace/orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	order, err := h.service.Get(r.Context(), actor(r), id)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order, h.logger)
}

// UpdateStatus handles PUT /api/marketplace/orders/{id}.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req model.UpdateOrderStatusRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), actor(r), id, req.Status)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order, h.logger)
}

// Stats handles GET /api/marketplace/stats.
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context(), actor(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, stats, h.logger)
}
