package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/models"
)

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	wallet, err := h.services.Ledger.Balance(ctx, userID)
	if err != nil {
		respondError(w, r, err, "balance lookup failed")
		return
	}

	utils.WriteJSON(w, models.BalanceResponse{
		Address:       wallet.Address,
		Balance:       wallet.Balance,
		StakedBalance: wallet.StakedBalance,
		Total:         wallet.Total(),
	}, http.StatusOK)
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	tx, err := h.services.Ledger.Transfer(ctx, userID, req)
	if err != nil {
		respondError(w, r, err, "transfer failed")
		return
	}

	log.Info().Str("tx_id", tx.TxID).Str("amount", tx.Amount.String()).Msg("transfer completed")

	utils.WriteJSON(w, tx, http.StatusOK)
}

func (h *Handler) stake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	wallet, err := h.services.Ledger.Stake(ctx, userID, req.Amount)
	if err != nil {
		respondError(w, r, err, "stake failed")
		return
	}

	utils.WriteJSON(w, models.BalanceResponse{
		Address:       wallet.Address,
		Balance:       wallet.Balance,
		StakedBalance: wallet.StakedBalance,
		Total:         wallet.Total(),
	}, http.StatusOK)
}

func (h *Handler) unstake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	wallet, err := h.services.Ledger.Unstake(ctx, userID, req.Amount)
	if err != nil {
		respondError(w, r, err, "unstake failed")
		return
	}

	utils.WriteJSON(w, models.BalanceResponse{
		Address:       wallet.Address,
		Balance:       wallet.Balance,
		StakedBalance: wallet.StakedBalance,
		Total:         wallet.Total(),
	}, http.StatusOK)
}

type faucetRequest struct {
	Amount string `json:"amount"`
}

// faucet credits the caller's wallet from the treasury. The route is
// registered only when the platform runs with DEBUG enabled.
func (h *Handler) faucet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req faucetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	wallet, err := h.services.Ledger.Faucet(ctx, userID, req.Amount)
	if err != nil {
		respondError(w, r, err, "faucet failed")
		return
	}

	log.Info().Int64("user_id", userID).Str("amount", req.Amount).Msg("faucet grant issued")

	utils.WriteJSON(w, models.BalanceResponse{
		Address:       wallet.Address,
		Balance:       wallet.Balance,
		StakedBalance: wallet.StakedBalance,
		Total:         wallet.Total(),
	}, http.StatusOK)
}

func (h *Handler) transactionHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	history, err := h.services.Ledger.History(ctx, userID, limitParam(r))
	if err != nil {
		respondError(w, r, err, "transaction history failed")
		return
	}

	utils.WriteJSON(w, history, http.StatusOK)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	tx, err := h.services.Ledger.GetTransaction(ctx, userID, chi.URLParam(r, "txID"))
	if err != nil {
		respondError(w, r, err, "transaction lookup failed")
		return
	}

	utils.WriteJSON(w, tx, http.StatusOK)
}
