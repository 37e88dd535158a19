package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"agrigenie/internal/model"
	"agrigenie/internal/service"

	"github.com/rs/zerolog"
)

// AccountHandler serves the user's profile and stored client state.
type AccountHandler struct {
	profiles service.ProfileService
	state    service.StateService
	logger   zerolog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(profiles service.ProfileService, state service.StateService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		profiles: profiles,
		state:    state,
		logger:   logger.With().Str("handler", "account").Logger(),
	}
}

// Profile handles GET /api/profile.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), actor(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, profile, h.logger)
}

// UpdateProfile handles PUT /api/profile.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update model.ProfileUpdate
	if !decodeJSON(w, r, &update, h.logger) {
		return
	}

	profile, err := h.profiles.Update(r.Context(), actor(r), update)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, profile, h.logger)
}

// GetState handles GET /api/state/{key}.
func (h *AccountHandler) GetState(w http.ResponseWriter, r *http.Request) {
	env, err := h.state.Get(r.Context(), actor(r), r.PathValue("key"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, env, h.logger)
}

// PutState handles PUT /api/state/{key}. The body is an envelope or a bare
// JSON array.
func (h *AccountHandler) PutState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	env, err := h.state.Put(r.Context(), actor(r), r.PathValue("key"), body)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, env, h.logger)
}

// PrependState handles POST /api/state/{key}, adding one entry.
func (h *AccountHandler) PrependState(w http.ResponseWriter, r *http.Request) {
	var item json.RawMessage
	if !decodeJSON(w, r, &item, h.logger) {
		return
	}

	env, err := h.state.Prepend(r.Context(), actor(r), r.PathValue("key"), item)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, env, h.logger)
}
