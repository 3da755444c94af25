package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/models"
)

func (h *Handler) createListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	listing, err := h.services.Marketplace.CreateListing(ctx, userID, req)
	if err != nil {
		respondError(w, r, err, "listing creation failed")
		return
	}

	log.Debug().Str("listing_id", listing.ListingID).Msg("listing created")

	utils.WriteJSON(w, listing, http.StatusCreated)
}

func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listing, err := h.services.Marketplace.GetListing(ctx, chi.URLParam(r, "listingID"))
	if err != nil {
		respondError(w, r, err, "listing lookup failed")
		return
	}

	utils.WriteJSON(w, listing, http.StatusOK)
}

func (h *Handler) searchListings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := listingFilterFromQuery(r)
	if err != nil {
		logger.FromRequest(r).Err(err).Msg("invalid listing filter")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	listings, err := h.services.Marketplace.SearchListings(ctx, filter)
	if err != nil {
		respondError(w, r, err, "listing search failed")
		return
	}

	utils.WriteJSON(w, listings, http.StatusOK)
}

func (h *Handler) updateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	listing, err := h.services.Marketplace.UpdateListing(ctx, userID, chi.URLParam(r, "listingID"), req)
	if err != nil {
		respondError(w, r, err, "listing update failed")
		return
	}

	utils.WriteJSON(w, listing, http.StatusOK)
}

func (h *Handler) cancelListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.services.Marketplace.CancelListing(ctx, userID, chi.URLParam(r, "listingID")); err != nil {
		respondError(w, r, err, "listing cancellation failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// favoriteResponse is the body of POST /api/marketplace/listings/{listingID}/favorite.
type favoriteResponse struct {
	Favorited bool  `json:"favorited"`
	Favorites int64 `json:"favorites"`
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	favorited, count, err := h.services.Marketplace.ToggleFavorite(ctx, userID, chi.URLParam(r, "listingID"))
	if err != nil {
		respondError(w, r, err, "favorite toggle failed")
		return
	}

	utils.WriteJSON(w, favoriteResponse{Favorited: favorited, Favorites: count}, http.StatusOK)
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	result, err := h.services.Marketplace.Purchase(ctx, userID, chi.URLParam(r, "listingID"))
	if err != nil {
		respondError(w, r, err, "purchase failed")
		return
	}

	log.Info().
		Str("listing_id", result.Listing.ListingID).
		Str("agent_id", result.Agent.AgentID).
		Str("total", result.Total.String()).
		Msg("listing purchased")

	utils.WriteJSON(w, models.PurchaseResponse{
		Listing: result.Listing,
		Agent:   result.Agent,
		Paid:    result.Total,
		Fee:     result.Fee,
	}, http.StatusOK)
}

// listingFilterFromQuery maps the search query parameters onto a
// [models.ListingFilter]. Unknown parameters are ignored; malformed prices
// are reported to the caller.
func listingFilterFromQuery(r *http.Request) (models.ListingFilter, error) {
	q := r.URL.Query()

	filter := models.ListingFilter{
		ServiceType: models.ServiceType(q.Get("type")),
		Status:      models.ListingStatus(q.Get("status")),
		Tag:         q.Get("tag"),
		Query:       q.Get("q"),
		Limit:       limitParam(r),
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return models.ListingFilter{}, err
		}
		filter.Offset = offset
	}
	if raw := q.Get("min_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return models.ListingFilter{}, err
		}
		filter.MinPrice = price
	}
	if raw := q.Get("max_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return models.ListingFilter{}, err
		}
		filter.MaxPrice = price
	}

	return filter, nil
}
