// Package handler exposes the marketplace services over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"agrigenie/internal/middleware"
	"agrigenie/internal/model"
	"agrigenie/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ValidationResponse is the error body for rejected payloads.
type ValidationResponse struct {
	model.ErrorResponse
	Violations []validation.FieldViolation `json:"violations"`
}

// writeJSON writes a JSON response with the given status code. The status
// is already sent when encoding fails, so the failure is only logged.
func writeJSON(w http.ResponseWriter, status int, data any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	ev := logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = logger.Error()
	}
	ev.Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message}, logger)
}

// handleError maps service errors onto HTTP responses. Unrecognised errors
// are logged in full and reported as a generic 500.
func handleError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		logger.Debug().Err(err).Msg("request failed validation")
		writeJSON(w, http.StatusBadRequest, ValidationResponse{
			ErrorResponse: model.ErrorResponse{Error: model.ErrCodeValidation, Message: verr.Error()},
			Violations:    verr.Violations,
		}, logger)
		return
	}

	var derr *model.DomainError
	if errors.As(err, &derr) {
		writeError(w, statusForCode(derr.Code), derr.Code, derr.Message, logger)
		return
	}

	logger.Error().Err(err).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: "internal server error",
	}, logger)
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeInvalidJSON, model.ErrCodeInvalidRequest, model.ErrCodeInvalidQuantity,
		model.ErrCodeInvalidStatus, model.ErrCodeInvalidStateKey, model.ErrCodeEmptyCart,
		model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeInsufficientStock, model.ErrCodeListingUnavailable, model.ErrCodeInvalidTransition:
		return http.StatusConflict
	case model.ErrCodeMarketUnavailable:
		return http.StatusBadGateway
	}
	if strings.HasSuffix(code, "_NOT_FOUND") {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger zerolog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// pathID parses the named path value as a UUID, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (uuid.UUID, bool) {
	raw := r.PathValue(name)
	if raw == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, name+" is required", logger)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid "+name+" format", logger)
		return uuid.Nil, false
	}
	return id, true
}

func actor(r *http.Request) model.Actor {
	return middleware.ActorFromContext(r.Context())
}
