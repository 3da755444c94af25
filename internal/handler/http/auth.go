package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/models"
)

// loginResponse is the body of successful register and login calls.
type loginResponse struct {
	User   models.User      `json:"user"`
	Tokens models.TokenPair `json:"tokens"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	registeredUser, err := h.services.Auth.Register(ctx, req)
	if err != nil {
		respondError(w, r, err, "user registration failed")
		return
	}

	// A fresh account logs in right away so the client leaves the call with
	// a usable token pair.
	user, tokens, err := h.services.Auth.Login(ctx, models.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err, "login after registration failed")
		return
	}

	log.Debug().Int64("id", registeredUser.UserID).Msg("user registered")

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", tokens.AccessToken))
	utils.WriteJSON(w, loginResponse{User: user, Tokens: tokens}, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	user, tokens, err := h.services.Auth.Login(ctx, req)
	if err != nil {
		respondError(w, r, err, "user login failed")
		return
	}

	log.Debug().Int64("id", user.UserID).Msg("user logged in")

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", tokens.AccessToken))
	utils.WriteJSON(w, loginResponse{User: user, Tokens: tokens}, http.StatusOK)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	tokens, err := h.services.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		respondError(w, r, err, "token refresh failed")
		return
	}

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", tokens.AccessToken))
	utils.WriteJSON(w, tokens, http.StatusOK)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.Auth.Logout(ctx, req.RefreshToken); err != nil {
		respondError(w, r, err, "logout failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
