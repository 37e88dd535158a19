package handler

import (
	"net/http"
	"strconv"

	"agrigenie/internal/model"
	"agrigenie/internal/service"

	"github.com/rs/zerolog"
)

// AdvisoryHandler serves market prices and treatment plans.
type AdvisoryHandler struct {
	market    service.MarketService
	treatment service.TreatmentService
	logger    zerolog.Logger
}

// NewAdvisoryHandler creates a new advisory handler.
func NewAdvisoryHandler(market service.MarketService, treatment service.TreatmentService, logger zerolog.Logger) *AdvisoryHandler {
	return &AdvisoryHandler{
		market:    market,
		treatment: treatment,
		logger:    logger.With().Str("handler", "advisory").Logger(),
	}
}

// CropData handles GET /api/fetch-crop-data.
func (h *AdvisoryHandler) CropData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mock := false
	if v := q.Get("mock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid mock parameter", h.logger)
			return
		}
		mock = b
	}

	data, err := h.market.CropData(r.Context(), q.Get("state"), q.Get("commodity"), mock)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, data, h.logger)
}

// Treatment handles POST /api/generate-treatment.
func (h *AdvisoryHandler) Treatment(w http.ResponseWriter, r *http.Request) {
	var req model.TreatmentRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	plan, err := h.treatment.Generate(r.Context(), req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, plan, h.logger)
}

// PriceComparison handles GET /api/price-comparison.
func (h *AdvisoryHandler) PriceComparison(w http.ResponseWriter, r *http.Request) {
	prices, err := h.market.PriceComparison(r.Context(), r.URL.Query().Get("crop"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, prices, h.logger)
}

// MarketTrends handles GET /api/market-trends. A crop with no feed records
// yields null.
func (h *AdvisoryHandler) MarketTrends(w http.ResponseWriter, r *http.Request) {
	trend, err := h.market.Trends(r.Context(), r.URL.Query().Get("crop"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, trend, h.logger)
}

// Lookup returns a handler listing the distinct values of one feed column,
// served at GET /api/states, /api/markets and /api/crops.
func (h *AdvisoryHandler) Lookup(kind service.Lookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, err := h.market.Lookup(r.Context(), kind)
		if err != nil {
			handleError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, values, h.logger)
	}
}
