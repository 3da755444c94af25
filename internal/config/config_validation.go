// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// validate checks that the final merged [Config] satisfies all platform
// invariants before it is used at startup. It also caches the parsed
// decimal amounts on the respective sections.
//
// Returns nil if the configuration is valid, or a descriptive error
// wrapping one of the ErrInvalid*Configs sentinels otherwise.
func (cfg *Config) validate() error {
	if err := cfg.validateApp(); err != nil {
		return err
	}

	if cfg.Storage.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL must not be empty", ErrInvalidStorageConfigs)
	}
	if cfg.Storage.RedisURL == "" {
		return fmt.Errorf("%w: REDIS_URL must not be empty", ErrInvalidStorageConfigs)
	}

	if cfg.Server.Address == "" {
		return fmt.Errorf("%w: server address must not be empty", ErrInvalidServerConfigs)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidServerConfigs)
	}

	if err := cfg.validateChain(); err != nil {
		return err
	}

	if cfg.RateLimit.Requests <= 0 || cfg.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive", ErrInvalidRateLimitConfigs)
	}

	if cfg.Agents.MaxPerUser <= 0 {
		return fmt.Errorf("%w: MAX_AGENTS_PER_USER must be positive", ErrInvalidAgentConfigs)
	}
	if cfg.Agents.TaskTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: AGENT_TASK_TIMEOUT must be positive", ErrInvalidAgentConfigs)
	}

	if err := cfg.validateEconomy(); err != nil {
		return err
	}
	if err := cfg.validateMarketplace(); err != nil {
		return err
	}

	if cfg.Auth.JWTAlgorithm != "HS256" {
		return fmt.Errorf("%w: unsupported JWT_ALGORITHM %q, only HS256 is supported", ErrInvalidAuthConfigs, cfg.Auth.JWTAlgorithm)
	}
	if cfg.Auth.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("%w: ACCESS_TOKEN_EXPIRE_MINUTES must be positive", ErrInvalidAuthConfigs)
	}

	if err := cfg.validateLogging(); err != nil {
		return err
	}

	if cfg.Workers.TaskWorkers <= 0 || cfg.Workers.SweepInterval <= 0 {
		return fmt.Errorf("%w: task workers and sweep interval must be positive", ErrInvalidWorkerConfigs)
	}

	return nil
}

func (cfg *Config) validateApp() error {
	switch cfg.App.Environment {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("%w: unknown environment %q", ErrInvalidAppConfigs, cfg.App.Environment)
	}

	if cfg.App.Name == "" {
		return fmt.Errorf("%w: APP_NAME must not be empty", ErrInvalidAppConfigs)
	}

	if cfg.App.SecretKey == "" {
		if cfg.App.Environment == EnvProduction {
			return fmt.Errorf("%w: SECRET_KEY is required in production", ErrInvalidAppConfigs)
		}

		// outside production a fresh ephemeral secret keeps local setups
		// working without a .env file
		key, err := ephemeralSecret()
		if err != nil {
			return fmt.Errorf("%w: generating ephemeral secret: %w", ErrInvalidAppConfigs, err)
		}
		cfg.App.SecretKey = key
	}

	return nil
}

func (cfg *Config) validateChain() error {
	if cfg.Chain.ProviderURL == "" {
		return fmt.Errorf("%w: WEB3_PROVIDER must not be empty", ErrInvalidChainConfigs)
	}

	if cfg.Chain.TreasuryAddress == "" {
		if cfg.App.Environment == EnvProduction {
			return fmt.Errorf("%w: TREASURY_ADDRESS is required in production", ErrInvalidChainConfigs)
		}
		cfg.Chain.TreasuryAddress = devTreasuryAddress
	}
	if !validHexAddress(cfg.Chain.TreasuryAddress) {
		return fmt.Errorf("%w: malformed TREASURY_ADDRESS %q", ErrInvalidChainConfigs, cfg.Chain.TreasuryAddress)
	}

	if cfg.Chain.ContractAddress != "" && !validHexAddress(cfg.Chain.ContractAddress) {
		return fmt.Errorf("%w: malformed CONTRACT_ADDRESS %q", ErrInvalidChainConfigs, cfg.Chain.ContractAddress)
	}

	return nil
}

func (cfg *Config) validateEconomy() error {
	supply, err := decimal.NewFromString(cfg.Economy.InitialSupply)
	if err != nil {
		return fmt.Errorf("%w: malformed INITIAL_TOKEN_SUPPLY %q: %w", ErrInvalidEconomyConfigs, cfg.Economy.InitialSupply, err)
	}
	if !supply.IsPositive() {
		return fmt.Errorf("%w: INITIAL_TOKEN_SUPPLY must be positive", ErrInvalidEconomyConfigs)
	}

	minStake, err := decimal.NewFromString(cfg.Economy.MinStake)
	if err != nil {
		return fmt.Errorf("%w: malformed MIN_STAKE_AMOUNT %q: %w", ErrInvalidEconomyConfigs, cfg.Economy.MinStake, err)
	}
	if !minStake.IsPositive() {
		return fmt.Errorf("%w: MIN_STAKE_AMOUNT must be positive", ErrInvalidEconomyConfigs)
	}

	cfg.Economy.initialSupply = supply
	cfg.Economy.minStake = minStake
	return nil
}

func (cfg *Config) validateMarketplace() error {
	pct, err := decimal.NewFromString(cfg.Marketplace.FeePercentage)
	if err != nil {
		return fmt.Errorf("%w: malformed MARKETPLACE_FEE_PERCENTAGE %q: %w", ErrInvalidMarketplaceConfigs, cfg.Marketplace.FeePercentage, err)
	}
	if pct.IsNegative() || pct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: MARKETPLACE_FEE_PERCENTAGE must be in [0, 100)", ErrInvalidMarketplaceConfigs)
	}

	floor, err := decimal.NewFromString(cfg.Marketplace.MinListingPrice)
	if err != nil {
		return fmt.Errorf("%w: malformed MIN_LISTING_PRICE %q: %w", ErrInvalidMarketplaceConfigs, cfg.Marketplace.MinListingPrice, err)
	}
	if !floor.IsPositive() {
		return fmt.Errorf("%w: MIN_LISTING_PRICE must be positive", ErrInvalidMarketplaceConfigs)
	}

	cfg.Marketplace.feeRate = pct.Div(decimal.NewFromInt(100))
	cfg.Marketplace.minListingPrice = floor
	return nil
}

func (cfg *Config) validateLogging() error {
	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("%w: unknown LOG_LEVEL %q", ErrInvalidLoggingConfigs, cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: unknown LOG_FORMAT %q, want json or console", ErrInvalidLoggingConfigs, cfg.Logging.Format)
	}

	return nil
}

// devTreasuryAddress is substituted for an empty TREASURY_ADDRESS outside
// production so local stacks bootstrap without chain material.
const devTreasuryAddress = "0x0000000000000000000000000000000000000001"

func validHexAddress(s string) bool {
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

func ephemeralSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
