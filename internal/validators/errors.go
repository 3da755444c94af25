package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidUsername    = errors.New("username must be 3-50 characters of letters, digits, underscore or hyphen")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters with upper, lower and digit")
	ErrInvalidAgentName   = errors.New("agent name must be 1-100 characters")
	ErrInvalidServiceType = errors.New("invalid service type")
	ErrInvalidAgentStatus = errors.New("invalid agent status")
	ErrInvalidConfig      = errors.New("agent config must be a JSON object")
	ErrInvalidPriority    = errors.New("priority must be between 0 and 9")
	ErrEmptyPayload       = errors.New("task payload is required")
	ErrInvalidAddress     = errors.New("address must be 0x followed by 40 hex digits")
	ErrInvalidAmount      = errors.New("amount must be a positive decimal with at most 18 fractional digits")
	ErrInvalidAgentID     = errors.New("invalid agent ID")
	ErrInvalidPrice       = errors.New("price must be a positive decimal")
	ErrDescriptionTooLong = errors.New("description exceeds 2000 characters")
	ErrTooManyTags        = errors.New("at most 10 tags are allowed")
	ErrInvalidTag         = errors.New("tags must be 1-30 characters")
	ErrInvalidTTL         = errors.New("listing TTL must be between 1 hour and 1 year")
	ErrNoFieldsToUpdate   = errors.New("at least one field must be provided for update")
)
