package config

import "errors"

// Validation errors returned by [Config.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAppConfigs indicates invalid process identity settings
	// (for example, an unknown environment or a missing production secret).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidStorageConfigs indicates invalid datastore settings
	// (for example, an empty database URL).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidServerConfigs indicates invalid HTTP server settings.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
	// ErrInvalidChainConfigs indicates invalid blockchain settings
	// (for example, a malformed treasury address).
	ErrInvalidChainConfigs = errors.New("invalid chain configuration")
	// ErrInvalidRateLimitConfigs indicates non-positive rate limit constants.
	ErrInvalidRateLimitConfigs = errors.New("invalid rate limit configuration")
	// ErrInvalidAgentConfigs indicates non-positive agent ceilings.
	ErrInvalidAgentConfigs = errors.New("invalid agent configuration")
	// ErrInvalidEconomyConfigs indicates malformed or non-positive
	// token-economy amounts.
	ErrInvalidEconomyConfigs = errors.New("invalid economy configuration")
	// ErrInvalidMarketplaceConfigs indicates a fee outside [0, 100) or a
	// non-positive listing-price floor.
	ErrInvalidMarketplaceConfigs = errors.New("invalid marketplace configuration")
	// ErrInvalidAuthConfigs indicates unsupported JWT parameters.
	ErrInvalidAuthConfigs = errors.New("invalid auth configuration")
	// ErrInvalidLoggingConfigs indicates an unknown log level or format.
	ErrInvalidLoggingConfigs = errors.New("invalid logging configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, zero task workers or sweep interval).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
