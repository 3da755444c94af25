package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/service"
	"github.com/MKhiriev/go-agent-platform/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrWrongPassword:           http.StatusUnauthorized,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,
	service.ErrSessionExpired:          http.StatusUnauthorized,
	service.ErrUserDeactivated:         http.StatusForbidden,

	service.ErrAgentLimitReached:       http.StatusConflict,
	service.ErrNotAgentOwner:           http.StatusForbidden,
	service.ErrInvalidStatusTransition: http.StatusConflict,
	service.ErrAgentUnavailable:        http.StatusConflict,

	service.ErrQueueFull:          http.StatusServiceUnavailable,
	service.ErrDailyLimitExceeded: http.StatusTooManyRequests,

	service.ErrSelfTransfer:        http.StatusBadRequest,
	service.ErrStakeTooSmall:       http.StatusBadRequest,
	service.ErrNotTransactionParty: http.StatusForbidden,

	service.ErrPriceTooLow: http.StatusBadRequest,

	service.ErrUnknownServiceType: http.StatusBadRequest,
	service.ErrUnknownModel:       http.StatusBadRequest,
	service.ErrUnknownQuality:     http.StatusBadRequest,
	service.ErrUnknownSize:        http.StatusBadRequest,
	service.ErrInvalidRate:        http.StatusBadRequest,

	store.ErrUserAlreadyExists:    http.StatusConflict,
	store.ErrUserNotFound:         http.StatusNotFound,
	store.ErrSessionNotFound:      http.StatusUnauthorized,
	store.ErrAgentNotFound:        http.StatusNotFound,
	store.ErrAgentNameTaken:       http.StatusConflict,
	store.ErrStatusConflict:       http.StatusConflict,
	store.ErrTaskNotFound:         http.StatusNotFound,
	store.ErrListingNotFound:      http.StatusNotFound,
	store.ErrListingNotActive:     http.StatusConflict,
	store.ErrListingAlreadyActive: http.StatusConflict,
	store.ErrOwnListingPurchase:   http.StatusConflict,
	store.ErrWalletNotFound:       http.StatusNotFound,
	store.ErrInsufficientBalance:  http.StatusPaymentRequired,
	store.ErrTransactionNotFound:  http.StatusNotFound,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its mapped HTTP status. Internal errors
// are masked with the generic status text so database details never reach
// the client.
func respondError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log := logger.FromRequest(r)
	log.Err(err).Msg(msg)

	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Error(w, err.Error(), status)
}
