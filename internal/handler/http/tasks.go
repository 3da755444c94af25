package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/models"
)

func (h *Handler) submitTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.SubmitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	task, err := h.services.Tasks.SubmitTask(ctx, userID, chi.URLParam(r, "agentID"), req)
	if err != nil {
		respondError(w, r, err, "task submission failed")
		return
	}

	log.Debug().Str("task_id", task.TaskID).Int("priority", task.Priority).Msg("task accepted")

	utils.WriteJSON(w, task, http.StatusAccepted)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	task, err := h.services.Tasks.GetTask(ctx, userID, chi.URLParam(r, "taskID"))
	if err != nil {
		respondError(w, r, err, "task lookup failed")
		return
	}

	utils.WriteJSON(w, task, http.StatusOK)
}

func (h *Handler) listAgentTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	tasks, err := h.services.Tasks.ListAgentTasks(ctx, userID, chi.URLParam(r, "agentID"), limitParam(r))
	if err != nil {
		respondError(w, r, err, "listing agent tasks failed")
		return
	}

	utils.WriteJSON(w, tasks, http.StatusOK)
}

func (h *Handler) listUserTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	tasks, err := h.services.Tasks.ListUserTasks(ctx, userID, limitParam(r))
	if err != nil {
		respondError(w, r, err, "listing user tasks failed")
		return
	}

	utils.WriteJSON(w, tasks, http.StatusOK)
}

// limitParam reads the optional "limit" query parameter. Zero means the
// service default.
func limitParam(r *http.Request) uint64 {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return limit
}
