package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/service"
)

// pollInterval is the dispatcher's fallback wake-up. The queue signals
// arrivals through TaskArrived; the ticker only covers signals coalesced
// while every worker goroutine was busy.
const pollInterval = time.Second

// TaskDispatcher drains the task queue with a pool of worker goroutines.
// Each dequeued task is executed end to end through
// [service.TaskService.Execute], which owns the deadline, billing and
// metrics bookkeeping.
type TaskDispatcher struct {
	tasks   service.TaskService
	workers int
	logger  *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTaskDispatcher creates an idle dispatcher with the given pool size.
// A non-positive size falls back to a single worker.
func NewTaskDispatcher(tasks service.TaskService, workers int, log *logger.Logger) *TaskDispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &TaskDispatcher{tasks: tasks, workers: workers, logger: log}
}

// Start restores tasks a previous process left unfinished and launches the
// worker pool. It stops any previously running pool first.
func (d *TaskDispatcher) Start(ctx context.Context) {
	d.Stop()

	restored, err := d.tasks.RestoreQueue(ctx)
	if err != nil {
		d.logger.Err(err).Msg("restoring task queue failed")
	} else if restored > 0 {
		d.logger.Info().Int("restored", restored).Msg("requeued unfinished tasks")
	}

	d.mu.Lock()
	poolCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.wg.Add(d.workers)
	d.mu.Unlock()

	d.logger.Info().Int("workers", d.workers).Msg("task dispatcher started")

	for i := 0; i < d.workers; i++ {
		go d.worker(poolCtx)
	}
}

// Stop cancels the pool and blocks until every worker goroutine has exited.
// Safe to call when the dispatcher is not running.
func (d *TaskDispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
}

func (d *TaskDispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	t := time.NewTicker(pollInterval)
	defer t.Stop()

	for {
		d.drain(ctx)

		select {
		case <-ctx.Done():
			return
		case <-d.tasks.TaskArrived():
		case <-t.C:
		}
	}
}

// drain executes queued tasks until the queue is empty or ctx is cancelled.
func (d *TaskDispatcher) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		task, ok := d.tasks.NextTask()
		if !ok {
			return
		}

		d.tasks.Execute(ctx, task)
	}
}
