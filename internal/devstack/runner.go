package devstack

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
)

// EventKind tells what happened to a step.
type EventKind int

const (
	// StepStarted means the step began executing.
	StepStarted EventKind = iota

	// StepOK means the step finished without error.
	StepOK

	// StepFailed means the step returned an error and the run stops.
	StepFailed
)

// Event is a progress notification emitted while the runner works through
// its steps. The interactive view consumes these over a channel; the plain
// console mode relies on the runner's log output instead.
type Event struct {
	Kind  EventKind
	Step  string
	Index int
	Total int
	Err   error
}

// Step is one unit of provisioning work.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner executes steps in order and stops at the first failure.
type Runner struct {
	steps  []Step
	logger *logger.Logger
}

func NewRunner(steps []Step, log *logger.Logger) *Runner {
	return &Runner{steps: steps, logger: log}
}

// Names returns the step names in execution order.
func (r *Runner) Names() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name
	}
	return names
}

// Run executes the steps sequentially. Every state change is sent to events
// when the channel is non-nil. The first failing step aborts the run and its
// error is returned wrapped in [ErrStepFailed].
func (r *Runner) Run(ctx context.Context, events chan<- Event) error {
	total := len(r.steps)

	for i, step := range r.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.emit(events, Event{Kind: StepStarted, Step: step.Name, Index: i, Total: total})
		r.logger.Info().
			Int("step", i+1).
			Int("of", total).
			Str("name", step.Name).
			Msg("step started")

		started := time.Now()
		if err := step.Run(ctx); err != nil {
			r.emit(events, Event{Kind: StepFailed, Step: step.Name, Index: i, Total: total, Err: err})
			r.logger.Err(err).
				Int("step", i+1).
				Str("name", step.Name).
				Msg("step failed")
			return fmt.Errorf("%w: %s: %w", ErrStepFailed, step.Name, err)
		}

		r.emit(events, Event{Kind: StepOK, Step: step.Name, Index: i, Total: total})
		r.logger.Info().
			Int("step", i+1).
			Str("name", step.Name).
			Dur("took", time.Since(started)).
			Msg("step done")
	}

	return nil
}

func (r *Runner) emit(events chan<- Event, e Event) {
	if events == nil {
		return
	}
	events <- e
}
