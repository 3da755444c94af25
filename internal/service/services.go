// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements the business rules of the platform: accounts
// and tokens, the agent lifecycle, task queueing and execution, the token
// ledger, the marketplace and usage pricing. Services sit between the HTTP
// handlers and the repositories; all storage access goes through the
// interfaces in internal/store.
package service

import (
	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/provider"
	"github.com/MKhiriev/go-agent-platform/internal/store"
)

// Services bundles every business service behind one handle.
type Services struct {
	Auth        AuthService
	Agents      AgentService
	Tasks       TaskService
	Ledger      LedgerService
	Marketplace MarketplaceService
	Pricing     PricingService
}

// NewServices wires all services over the given repositories, cache and
// provider runner. The dependency order is fixed: pricing and ledger first,
// auth funds wallets through the ledger, tasks execute through agents,
// ledger and pricing.
func NewServices(storages *store.Storages, cache *store.Cache, runner provider.Runner, cfg *config.Config, log *logger.Logger) *Services {
	pricing := NewPricingService(storages.UsageRepository, cache, log)
	ledger := NewLedgerService(storages.WalletRepository, storages.TransactionRepository, cfg.Chain, cfg.Economy, log)
	auth := NewAuthService(storages.UserRepository, storages.SessionRepository, ledger, cfg.App, cfg.Auth, log)
	agents := NewAgentService(storages.AgentRepository, cfg.Agents, log)
	tasks := NewTaskService(storages.TaskRepository, agents, ledger, pricing, runner, cfg.Agents, log)
	marketplace := NewMarketplaceService(
		storages.ListingRepository,
		storages.AgentRepository,
		storages.WalletRepository,
		storages.TransactionRepository,
		cfg.Marketplace,
		cfg.Chain,
		log,
	)

	return &Services{
		Auth:        auth,
		Agents:      agents,
		Tasks:       tasks,
		Ledger:      ledger,
		Marketplace: marketplace,
		Pricing:     pricing,
	}
}
