package handler

import (
	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/handler/http"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/service"
	"github.com/MKhiriev/go-agent-platform/internal/store"
)

// Handlers aggregates the transport handlers of the platform. The API is
// HTTP-only; the aggregate exists so the server package stays independent of
// the concrete transport wiring.
type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.Services, cache *store.Cache, deps http.Dependencies, cfg *config.Config, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.Server.Address == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{
		HTTP: http.NewHandler(services, cache, deps, cfg, logger),
	}, nil
}
