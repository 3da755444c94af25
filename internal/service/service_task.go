package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/provider"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/internal/validators"
	"github.com/MKhiriev/go-agent-platform/models"
)

// defaultQueueCapacity bounds the in-memory task queue. Submissions beyond
// it are rejected instead of buffered without limit.
const defaultQueueCapacity = 1024

// Task listing pagination bounds.
const (
	defaultTaskListLimit = 50
	maxTaskListLimit     = 200
)

// taskService is the concrete implementation of [TaskService]. Tasks are
// persisted first and queued second, so the queue can always be rebuilt from
// the database after a crash.
type taskService struct {
	taskRepository store.TaskRepository

	agents  AgentService
	ledger  LedgerService
	pricing PricingService
	runner  provider.Runner

	queue *taskQueue

	validator validators.Validator
	uuid      *utils.UUIDGenerator

	// taskTimeout bounds one provider call during execution.
	taskTimeout time.Duration

	logger *logger.Logger
}

// NewTaskService constructs a [TaskService] executing through runner with
// the timeout from cfg.
func NewTaskService(
	taskRepository store.TaskRepository,
	agents AgentService,
	ledger LedgerService,
	pricing PricingService,
	runner provider.Runner,
	cfg config.Agents,
	logger *logger.Logger,
) TaskService {
	return &taskService{
		taskRepository: taskRepository,
		agents:         agents,
		ledger:         ledger,
		pricing:        pricing,
		runner:         runner,
		queue:          newTaskQueue(defaultQueueCapacity),
		validator:      validators.NewRequestValidator(),
		uuid:           utils.NewUUIDGenerator(),
		taskTimeout:    cfg.TaskTimeout(),
		logger:         logger,
	}
}

// SubmitTask implements [TaskService]. Work is accepted for idle and busy
// agents; offline, errored and retired agents reject submissions.
func (s *taskService) SubmitTask(ctx context.Context, userID int64, agentID string, req models.SubmitTaskRequest) (models.Task, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Error().Err(err).Str("agent_id", agentID).Msg("invalid task data")
		return models.Task{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	agent, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		return models.Task{}, err
	}
	if agent.Status != models.AgentIdle && agent.Status != models.AgentBusy {
		log.Warn().Str("agent_id", agentID).Str("status", string(agent.Status)).Msg("agent not accepting tasks")
		return models.Task{}, ErrAgentUnavailable
	}

	if err := s.pricing.CheckDailyLimit(ctx, userID); err != nil {
		return models.Task{}, err
	}

	task, err := s.taskRepository.CreateTask(ctx, models.Task{
		TaskID:   s.uuid.Generate(),
		AgentID:  agentID,
		UserID:   userID,
		Type:     agent.Type,
		Priority: req.Priority,
		Status:   models.TaskQueued,
		Payload:  req.Payload,
		Cost:     decimal.Zero,
		QueuedAt: time.Now(),
	})
	if err != nil {
		log.Err(err).Str("agent_id", agentID).Msg("task creation ended with error")
		return models.Task{}, fmt.Errorf("task creation ended with error: %w", err)
	}

	if err := s.queue.Push(task); err != nil {
		// The row exists but will never be dispatched; close it out.
		if failErr := s.taskRepository.FailTask(ctx, task.TaskID, models.TaskCancelled, "queue full", time.Now()); failErr != nil {
			log.Err(failErr).Str("task_id", task.TaskID).Msg("overflow bookkeeping failed")
		}
		log.Warn().Str("task_id", task.TaskID).Msg("task queue full")
		return models.Task{}, err
	}

	log.Info().
		Str("task_id", task.TaskID).
		Str("agent_id", agentID).
		Int("priority", task.Priority).
		Msg("task queued")
	return task, nil
}

// GetTask implements [TaskService]. Tasks of other users are reported as
// missing rather than forbidden.
func (s *taskService) GetTask(ctx context.Context, userID int64, taskID string) (models.Task, error) {
	task, err := s.taskRepository.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("task lookup failed: %w", err)
	}
	if task.UserID != userID {
		return models.Task{}, store.ErrTaskNotFound
	}
	return task, nil
}

// ListAgentTasks implements [TaskService].
func (s *taskService) ListAgentTasks(ctx context.Context, userID int64, agentID string, limit uint64) ([]models.Task, error) {
	agent, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.OwnerID != userID {
		return nil, ErrNotAgentOwner
	}

	tasks, err := s.taskRepository.ListTasksByAgent(ctx, agentID, clampTaskLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("task listing failed: %w", err)
	}
	return tasks, nil
}

// ListUserTasks implements [TaskService].
func (s *taskService) ListUserTasks(ctx context.Context, userID int64, limit uint64) ([]models.Task, error) {
	tasks, err := s.taskRepository.ListTasksByUser(ctx, userID, clampTaskLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("task listing failed: %w", err)
	}
	return tasks, nil
}

// NextTask implements [TaskService].
func (s *taskService) NextTask() (models.Task, bool) {
	return s.queue.Pop()
}

// TaskArrived implements [TaskService].
func (s *taskService) TaskArrived() <-chan struct{} {
	return s.queue.Arrived()
}

// QueueDepth implements [TaskService].
func (s *taskService) QueueDepth() int {
	return s.queue.Len()
}

// RestoreQueue implements [TaskService]. Tasks found running belonged to a
// process that died mid-flight; they are re-executed from their persisted
// payload.
func (s *taskService) RestoreQueue(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	unfinished, err := s.taskRepository.ListUnfinishedTasks(ctx)
	if err != nil {
		return 0, fmt.Errorf("unfinished task lookup failed: %w", err)
	}

	restored := 0
	for _, task := range unfinished {
		if err := s.queue.Push(task); err != nil {
			log.Warn().Int("restored", restored).Msg("queue filled up during restore")
			break
		}
		restored++
	}

	if restored > 0 {
		log.Info().Int("restored", restored).Msg("task queue restored")
	}
	return restored, nil
}

// Execute implements [TaskService]. The pipeline claims the agent, calls the
// provider under the execution deadline, prices the call, charges the
// requester and releases the agent. A task that cannot claim its agent goes
// back into the queue.
func (s *taskService) Execute(ctx context.Context, task models.Task) {
	log := logger.FromContext(ctx)

	if err := s.agents.BeginWork(ctx, task.AgentID); err != nil {
		if errors.Is(err, ErrAgentUnavailable) {
			s.requeue(ctx, task)
			return
		}
		log.Err(err).Str("task_id", task.TaskID).Msg("agent claim failed")
		s.failTask(ctx, task, models.TaskFailed, err.Error())
		return
	}

	started := time.Now()
	if err := s.taskRepository.MarkTaskRunning(ctx, task.TaskID, started); err != nil {
		// A restored task is already marked running; anything else is fatal.
		if !errors.Is(err, store.ErrTaskNotFound) || task.Status != models.TaskRunning {
			log.Err(err).Str("task_id", task.TaskID).Msg("task start bookkeeping failed")
			s.failTask(ctx, task, models.TaskFailed, err.Error())
			s.releaseAgent(ctx, task.AgentID, false, 0)
			return
		}
	}

	agent, err := s.agents.GetAgent(ctx, task.AgentID)
	if err != nil {
		log.Err(err).Str("task_id", task.TaskID).Msg("agent lookup failed")
		s.failTask(ctx, task, models.TaskFailed, err.Error())
		s.releaseAgent(ctx, task.AgentID, false, 0)
		return
	}
	agentCfg := parseAgentConfig(agent.Config)

	execCtx, cancel := context.WithTimeout(ctx, s.taskTimeout)
	defer cancel()

	result, err := s.runner.Generate(execCtx, provider.Request{
		Type:    task.Type,
		Model:   agentCfg.Model,
		Payload: task.Payload,
	})
	elapsed := time.Since(started)

	if err != nil {
		// On shutdown the row stays running and is requeued by the next
		// process; only genuine failures are persisted.
		if ctx.Err() != nil && execCtx.Err() != context.DeadlineExceeded {
			log.Warn().Str("task_id", task.TaskID).Msg("execution interrupted by shutdown")
			s.releaseAgent(context.WithoutCancel(ctx), task.AgentID, false, elapsed.Seconds())
			return
		}

		status := models.TaskFailed
		if errors.Is(err, context.DeadlineExceeded) || execCtx.Err() == context.DeadlineExceeded {
			status = models.TaskTimeout
		}
		log.Warn().Err(err).Str("task_id", task.TaskID).Str("status", string(status)).Msg("task execution failed")
		s.failTask(ctx, task, status, err.Error())
		s.releaseAgent(ctx, task.AgentID, false, elapsed.Seconds())
		return
	}

	cost := decimal.Zero
	estimate, err := s.pricing.Quote(ctx, QuoteSpec{
		Type:    task.Type,
		Model:   result.Model,
		Units:   result.Units,
		Quality: agentCfg.Quality,
		Size:    agentCfg.Size,
	})
	if err != nil {
		// Unpriceable output executes for free rather than failing the task.
		log.Warn().Err(err).Str("task_id", task.TaskID).Str("model", result.Model).Msg("task not priced")
	} else {
		cost = estimate.Total
	}

	completed := time.Now()
	task.Status = models.TaskCompleted
	task.Result = result.Output
	task.Cost = cost
	task.StartedAt = &started
	task.CompletedAt = &completed

	if err := s.taskRepository.CompleteTask(ctx, task); err != nil {
		log.Err(err).Str("task_id", task.TaskID).Msg("task completion bookkeeping failed")
	}

	if cost.IsPositive() {
		if _, err := s.ledger.ChargeUsage(ctx, task.UserID, cost, task.TaskID); err != nil {
			log.Warn().Err(err).Str("task_id", task.TaskID).Str("cost", cost.String()).Msg("usage charge failed")
		}
	}

	if err := s.pricing.RecordUsage(ctx, models.ServiceUsage{
		UserID:    task.UserID,
		AgentID:   task.AgentID,
		TaskID:    task.TaskID,
		Provider:  result.Provider,
		Type:      task.Type,
		Units:     result.Units,
		Cost:      cost,
		CreatedAt: completed,
	}); err != nil {
		log.Warn().Err(err).Str("task_id", task.TaskID).Msg("usage recording failed")
	}

	s.releaseAgent(ctx, task.AgentID, true, elapsed.Seconds())

	log.Info().
		Str("task_id", task.TaskID).
		Str("provider", result.Provider).
		Int64("units", result.Units).
		Str("cost", cost.String()).
		Dur("elapsed", elapsed).
		Msg("task completed")
}

// requeue puts a task whose agent was busy back into the queue.
func (s *taskService) requeue(ctx context.Context, task models.Task) {
	if err := s.queue.Push(task); err != nil {
		logger.FromContext(ctx).Warn().Str("task_id", task.TaskID).Msg("requeue failed, queue full")
		s.failTask(ctx, task, models.TaskCancelled, "queue full")
	}
}

func (s *taskService) failTask(ctx context.Context, task models.Task, status models.TaskStatus, reason string) {
	if err := s.taskRepository.FailTask(ctx, task.TaskID, status, reason, time.Now()); err != nil {
		logger.FromContext(ctx).Err(err).Str("task_id", task.TaskID).Msg("task failure bookkeeping failed")
	}
}

func (s *taskService) releaseAgent(ctx context.Context, agentID string, succeeded bool, responseTime float64) {
	if err := s.agents.FinishWork(ctx, agentID, succeeded, responseTime); err != nil {
		logger.FromContext(ctx).Err(err).Str("agent_id", agentID).Msg("agent release failed")
	}
}

// agentConfig is the subset of the opaque agent configuration the execution
// pipeline understands. Unknown fields pass through untouched.
type agentConfig struct {
	Model   string `json:"model"`
	Quality string `json:"quality"`
	Size    string `json:"size"`
}

func parseAgentConfig(raw json.RawMessage) agentConfig {
	var cfg agentConfig
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &cfg)
	}
	return cfg
}

func clampTaskLimit(limit uint64) uint64 {
	if limit == 0 {
		return defaultTaskListLimit
	}
	if limit > maxTaskListLimit {
		return maxTaskListLimit
	}
	return limit
}
