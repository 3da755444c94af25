package http

import (
	"context"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/service"
	"github.com/MKhiriev/go-agent-platform/internal/store"
)

// Pinger reports whether one platform dependency is reachable.
type Pinger interface {
	Health(ctx context.Context) error
}

// ProviderStatus reports the reachability of the registered model providers,
// keyed by provider name. A nil error means the provider answered.
type ProviderStatus interface {
	Status(ctx context.Context) map[string]error
}

// Dependencies bundles everything the health endpoint probes. Nil fields are
// skipped, so a deployment running without a chain node simply reports fewer
// checks.
type Dependencies struct {
	DB        Pinger
	Cache     Pinger
	Chain     Pinger
	Providers ProviderStatus
}

type Handler struct {
	services *service.Services

	// cache backs the fixed-window rate limiter.
	cache   *store.Cache
	rateCfg config.RateLimit
	appCfg  config.App

	deps Dependencies

	logger *logger.Logger
}

func NewHandler(services *service.Services, cache *store.Cache, deps Dependencies, cfg *config.Config, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		cache:    cache,
		rateCfg:  cfg.RateLimit,
		appCfg:   cfg.App,
		deps:     deps,
		logger:   logger,
	}
}
