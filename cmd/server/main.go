package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-agent-platform/internal/chain"
	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/handler"
	handlerhttp "github.com/MKhiriev/go-agent-platform/internal/handler/http"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/provider"
	"github.com/MKhiriev/go-agent-platform/internal/server"
	"github.com/MKhiriev/go-agent-platform/internal/service"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	cfg, err := config.GetConfig()
	if err != nil {
		logger.NewLogger("agent-platform", "", "").Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewLogger("agent-platform", cfg.Logging.Level, cfg.Logging.Format)
	log.Debug().Str("environment", cfg.App.Environment).Str("address", cfg.Server.Address).Msg("received configs")

	ctx := context.Background()

	db, err := store.NewConnectPostgres(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting database")
	}

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	cache, err := store.NewCache(ctx, cfg.Storage.RedisURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting redis")
	}

	storages := store.NewStorages(db, log)
	providers := provider.NewAggregatorFromConfig(cfg.Providers, cfg.Server.RequestTimeout, log)
	services := service.NewServices(storages, cache, providers, cfg, log)

	// Mint the initial supply into the treasury wallet on first start.
	if _, err := services.Ledger.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("error bootstrapping token ledger")
	}

	deps := handlerhttp.Dependencies{
		DB:        db,
		Cache:     cache,
		Chain:     chain.NewRPCClient(cfg.Chain.ProviderURL, cfg.Server.RequestTimeout, log),
		Providers: providers,
	}

	handlers, err := handler.NewHandlers(services, cache, deps, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	jobs := workers.NewWorkers(services, storages.SessionRepository, cfg.Workers, log)

	srv, err := server.NewServer(handlers, jobs, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	handlerhttp.BuildVersion = buildVersion
	handlerhttp.BuildDate = buildDate
	handlerhttp.BuildCommit = buildCommit

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
