package service

import "errors"

// Sentinel errors returned by the business layer. Handlers match them with
// [errors.Is] to pick HTTP status codes.
var (
	ErrInvalidDataProvided = errors.New("invalid data provided")

	ErrWrongPassword           = errors.New("wrong email or password")
	ErrUserDeactivated         = errors.New("user account is deactivated")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrSessionExpired          = errors.New("session is expired or revoked")

	ErrAgentLimitReached       = errors.New("agent limit reached")
	ErrNotAgentOwner           = errors.New("agent belongs to another user")
	ErrInvalidStatusTransition = errors.New("invalid agent status transition")
	ErrAgentUnavailable        = errors.New("agent cannot accept tasks")

	ErrQueueFull          = errors.New("task queue is full")
	ErrDailyLimitExceeded = errors.New("daily request limit exceeded")

	ErrSelfTransfer        = errors.New("cannot transfer to own wallet")
	ErrStakeTooSmall       = errors.New("stake amount is below the minimum")
	ErrNotTransactionParty = errors.New("transaction belongs to other parties")

	ErrPriceTooLow = errors.New("listing price is below the minimum")

	ErrUnknownServiceType = errors.New("no pricing for service type")
	ErrUnknownModel       = errors.New("unknown model")
	ErrUnknownQuality     = errors.New("unknown quality level")
	ErrUnknownSize        = errors.New("unknown image size")
	ErrInvalidRate        = errors.New("rate must be positive")
)
