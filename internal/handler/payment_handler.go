package handler

import (
	"net/http"

	"agrigenie/internal/model"
	"agrigenie/internal/service"

	"github.com/rs/zerolog"
)

// PaymentMethodHandler serves the actor's saved payment methods.
type PaymentMethodHandler struct {
	service service.PaymentMethodService
	logger  zerolog.Logger
}

// NewPaymentMethodHandler creates a new payment method handler.
func NewPaymentMethodHandler(svc service.PaymentMethodService, logger zerolog.Logger) *PaymentMethodHandler {
	return &PaymentMethodHandler{
		service: svc,
		logger:  logger.With().Str("handler", "payment_method").Logger(),
	}
}

type successResponse struct {
	Success bool `json:"success"`
}

// List handles GET /api/profile/payment-methods.
func (h *PaymentMethodHandler) List(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.List(r.Context(), actor(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, methods, h.logger)
}

// Create handles POST /api/profile/payment-methods.
func (h *PaymentMethodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.PaymentMethodInput
	if !decodeJSON(w, r, &input, h.logger) {
		return
	}

	method, err := h.service.Create(r.Context(), actor(r), input)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, method, h.logger)
}

// Delete handles DELETE /api/profile/payment-methods/{id}.
func (h *PaymentMethodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor(r), id); err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true}, h.logger)
}

// SetDefault handles PUT /api/profile/payment-methods/{id}/default.
func (h *PaymentMethodHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.service.SetDefault(r.Context(), actor(r), id); err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true}, h.logger)
}
