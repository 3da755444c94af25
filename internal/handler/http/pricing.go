package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/service"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/models"
)

// estimateRequest is the payload of POST /api/pricing/estimate.
type estimateRequest struct {
	Type    models.ServiceType `json:"type"`
	Model   string             `json:"model"`
	Units   int64              `json:"units"`
	Quality string             `json:"quality,omitempty"`
	Size    string             `json:"size,omitempty"`
}

func (h *Handler) estimateCost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	estimate, err := h.services.Pricing.Quote(ctx, service.QuoteSpec{
		Type:    req.Type,
		Model:   req.Model,
		Units:   req.Units,
		Quality: req.Quality,
		Size:    req.Size,
	})
	if err != nil {
		respondError(w, r, err, "cost estimation failed")
		return
	}

	utils.WriteJSON(w, estimate, http.StatusOK)
}

func (h *Handler) getRates(w http.ResponseWriter, r *http.Request) {
	rates := h.services.Pricing.Rates(r.Context())
	utils.WriteJSON(w, rates, http.StatusOK)
}

func (h *Handler) usageSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			log.Err(err).Msg("invalid day parameter")
			http.Error(w, "day must be formatted YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	summary, err := h.services.Pricing.UsageSummary(ctx, userID, day)
	if err != nil {
		respondError(w, r, err, "usage summary failed")
		return
	}

	utils.WriteJSON(w, summary, http.StatusOK)
}
