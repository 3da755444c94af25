package workers

import (
	"context"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/service"
	"github.com/MKhiriev/go-agent-platform/internal/store"
)

// Workers bundles every background worker behind one handle.
type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

// NewWorkers wires the standard worker set: the task dispatcher and the
// expiry sweeper.
func NewWorkers(services *service.Services, sessions store.SessionRepository, cfg config.Workers, log *logger.Logger) *Workers {
	return &Workers{
		workers: []Worker{
			NewTaskDispatcher(services.Tasks, cfg.TaskWorkers, log),
			NewSweeper(services.Marketplace, sessions, cfg.SweepInterval, log),
		},
		logger: log,
	}
}

// Run starts every worker. The workers stop when ctx is cancelled or Stop is
// called.
func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
}

// Stop shuts every worker down and blocks until all of them have exited.
func (w *Workers) Stop() {
	for _, worker := range w.workers {
		worker.Stop()
	}
	if w.logger != nil {
		w.logger.Info().Msg("background workers stopped")
	}
}
