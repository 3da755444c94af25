package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

// taskRepository is the PostgreSQL-backed implementation of [TaskRepository].
// It records the lifecycle of agent tasks against the "agent_tasks" table.
type taskRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewTaskRepository constructs a [TaskRepository] backed by the provided
// database connection and logger.
func NewTaskRepository(db *DB, logger *logger.Logger) TaskRepository {
	logger.Debug().Msg("creating task repository")
	return &taskRepository{
		db:     db,
		logger: logger,
	}
}

// scanTask reads one task row in query column order. The payload and result
// JSONB columns are nullable (a queued task has no result yet), so they go
// through plain byte slices rather than *json.RawMessage, which rejects NULL.
func scanTask(row rowScanner) (models.Task, error) {
	var (
		task            models.Task
		payload, result []byte
	)

	err := row.Scan(
		&task.TaskID,
		&task.AgentID,
		&task.UserID,
		&task.Type,
		&task.Priority,
		&task.Status,
		&payload,
		&result,
		&task.Error,
		&task.Cost,
		&task.QueuedAt,
		&task.StartedAt,
		&task.CompletedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	task.Payload = payload
	task.Result = result
	return task, nil
}

// CreateTask inserts a newly queued task and returns it with server-assigned
// fields populated.
func (r *taskRepository) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createTask,
		task.TaskID, task.AgentID, task.UserID, task.Type,
		task.Priority, task.Status, task.Payload, task.QueuedAt)

	saved, err := scanTask(row)
	if err != nil {
		log.Err(err).
			Str("func", "*taskRepository.CreateTask").
			Str("agent_id", task.AgentID).
			Int64("user_id", task.UserID).
			Msg("error: creating task")
		return models.Task{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return saved, nil
}

// GetTask retrieves the task with the given ID, or [ErrTaskNotFound].
func (r *taskRepository) GetTask(ctx context.Context, taskID string) (models.Task, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, getTask, taskID)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrTaskNotFound
		}

		log.Err(err).
			Str("func", "*taskRepository.GetTask").
			Str("task_id", taskID).
			Msg("error: getting task")
		return models.Task{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return task, nil
}

// ListTasksByAgent retrieves the most recent tasks of one agent, newest first.
func (r *taskRepository) ListTasksByAgent(ctx context.Context, agentID string, limit uint64) ([]models.Task, error) {
	return r.listTasks(ctx, listTasksByAgent, "*taskRepository.ListTasksByAgent", agentID, limit)
}

// ListTasksByUser retrieves the most recent tasks submitted by one user,
// newest first.
func (r *taskRepository) ListTasksByUser(ctx context.Context, userID int64, limit uint64) ([]models.Task, error) {
	return r.listTasks(ctx, listTasksByUser, "*taskRepository.ListTasksByUser", userID, limit)
}

// listTasks runs one of the LIMIT-bounded task list queries and scans the
// result set.
func (r *taskRepository) listTasks(ctx context.Context, query, funcName string, key any, limit uint64) ([]models.Task, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, query, key, limit)
	if err != nil {
		log.Err(err).
			Str("func", funcName).
			Msg("failed to execute query for listing tasks")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0, limit)

	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", funcName).
				Msg("failed to scan task row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		tasks = append(tasks, task)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", funcName).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return tasks, nil
}

// MarkTaskRunning transitions a queued task to running and stamps started_at.
// The UPDATE matches only queued tasks, so a task already picked up by another
// dispatcher run is left untouched and reported as [ErrTaskNotFound].
func (r *taskRepository) MarkTaskRunning(ctx context.Context, taskID string, startedAt time.Time) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, markTaskRunning, startedAt, taskID)
	if err != nil {
		log.Err(err).
			Str("func", "*taskRepository.MarkTaskRunning").
			Str("task_id", taskID).
			Msg("error: marking task running")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// CompleteTask stores the result, cost and completion time of a successfully
// executed task.
func (r *taskRepository) CompleteTask(ctx context.Context, task models.Task) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, completeTask,
		task.Result, task.Cost, task.CompletedAt, task.TaskID)
	if err != nil {
		log.Err(err).
			Str("func", "*taskRepository.CompleteTask").
			Str("task_id", task.TaskID).
			Msg("error: completing task")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// FailTask marks a task failed, timed out or cancelled with the reason.
func (r *taskRepository) FailTask(ctx context.Context, taskID string, status models.TaskStatus, reason string, completedAt time.Time) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, failTask, status, reason, completedAt, taskID)
	if err != nil {
		log.Err(err).
			Str("func", "*taskRepository.FailTask").
			Str("task_id", taskID).
			Str("status", string(status)).
			Msg("error: failing task")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// ListUnfinishedTasks retrieves tasks still queued or running, oldest first.
// The dispatcher calls this once at startup to requeue work that survived a
// restart.
func (r *taskRepository) ListUnfinishedTasks(ctx context.Context) ([]models.Task, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, listUnfinishedTasks)
	if err != nil {
		log.Err(err).
			Str("func", "*taskRepository.ListUnfinishedTasks").
			Msg("failed to execute query for listing unfinished tasks")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0, 50)

	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "*taskRepository.ListUnfinishedTasks").
				Msg("failed to scan task row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		tasks = append(tasks, task)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "*taskRepository.ListUnfinishedTasks").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return tasks, nil
}
