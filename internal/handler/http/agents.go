package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/models"
)

func (h *Handler) createAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	agent, err := h.services.Agents.CreateAgent(ctx, userID, req)
	if err != nil {
		respondError(w, r, err, "agent creation failed")
		return
	}

	log.Debug().Str("agent_id", agent.AgentID).Msg("agent created")

	utils.WriteJSON(w, agent, http.StatusCreated)
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	agents, err := h.services.Agents.ListAgents(ctx, userID)
	if err != nil {
		respondError(w, r, err, "listing agents failed")
		return
	}

	utils.WriteJSON(w, agents, http.StatusOK)
}

func (h *Handler) getAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	agent, err := h.services.Agents.GetAgent(ctx, chi.URLParam(r, "agentID"))
	if err != nil {
		respondError(w, r, err, "agent lookup failed")
		return
	}

	utils.WriteJSON(w, agent, http.StatusOK)
}

func (h *Handler) updateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	agent, err := h.services.Agents.UpdateAgent(ctx, userID, chi.URLParam(r, "agentID"), req)
	if err != nil {
		respondError(w, r, err, "agent update failed")
		return
	}

	utils.WriteJSON(w, agent, http.StatusOK)
}

// transitionRequest is the payload of POST /api/agents/{agentID}/status.
type transitionRequest struct {
	Status models.AgentStatus `json:"status"`
}

func (h *Handler) transitionAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	agent, err := h.services.Agents.TransitionAgent(ctx, userID, chi.URLParam(r, "agentID"), req.Status)
	if err != nil {
		respondError(w, r, err, "agent status transition failed")
		return
	}

	log.Debug().Str("agent_id", agent.AgentID).Str("status", string(agent.Status)).Msg("agent status changed")

	utils.WriteJSON(w, agent, http.StatusOK)
}
