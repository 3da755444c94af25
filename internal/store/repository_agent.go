package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

// agentColumns is the canonical column list scanned by [scanAgent]. Kept in
// one place so the static queries and the squirrel builders cannot drift.
const agentColumns = `agent_id, owner_id, name, description, type, status, config,
        total_tasks, successful_tasks, failed_tasks, avg_response_time, created_at, updated_at`

// agentRepository is the PostgreSQL-backed implementation of
// [AgentRepository]. It executes agent CRUD and metric roll-ups against the
// "agents" table.
type agentRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewAgentRepository constructs an [AgentRepository] backed by the provided
// database connection and logger.
func NewAgentRepository(db *DB, logger *logger.Logger) AgentRepository {
	logger.Debug().Msg("creating agent repository")
	return &agentRepository{
		db:     db,
		logger: logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows so the scan helpers work with
// both single-row and multi-row queries.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAgent reads one agent row in [agentColumns] order. The config JSONB
// column is nullable, so it goes through a plain byte slice rather than
// *json.RawMessage, which rejects NULL.
func scanAgent(row rowScanner) (models.Agent, error) {
	var (
		agent  models.Agent
		config []byte
	)

	err := row.Scan(
		&agent.AgentID,
		&agent.OwnerID,
		&agent.Name,
		&agent.Description,
		&agent.Type,
		&agent.Status,
		&config,
		&agent.Metrics.TotalTasks,
		&agent.Metrics.SuccessfulTasks,
		&agent.Metrics.FailedTasks,
		&agent.Metrics.AvgResponseTime,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		return models.Agent{}, err
	}

	agent.Config = config
	return agent, nil
}

// CreateAgent inserts a new agent and returns it with server-assigned fields
// populated.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) on (owner_id, name) →
//     [ErrAgentNameTaken].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (r *agentRepository) CreateAgent(ctx context.Context, agent models.Agent) (models.Agent, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createAgent,
		agent.AgentID, agent.OwnerID, agent.Name, agent.Description,
		agent.Type, agent.Status, agent.Config)

	saved, err := scanAgent(row)
	if err != nil {
		log.Err(err).
			Str("func", "*agentRepository.CreateAgent").
			Int64("owner_id", agent.OwnerID).
			Msg("error: creating agent")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.Agent{}, ErrAgentNameTaken
		default:
			return models.Agent{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return saved, nil
}

// GetAgent retrieves the agent with the given ID, or [ErrAgentNotFound].
func (r *agentRepository) GetAgent(ctx context.Context, agentID string) (models.Agent, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, getAgent, agentID)

	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Agent{}, ErrAgentNotFound
		}

		log.Err(err).
			Str("func", "*agentRepository.GetAgent").
			Str("agent_id", agentID).
			Msg("error: getting agent")
		return models.Agent{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return agent, nil
}

// ListAgentsByOwner retrieves all agents owned by ownerID, newest first.
// Returns an empty slice when the user owns no agents.
func (r *agentRepository) ListAgentsByOwner(ctx context.Context, ownerID int64) ([]models.Agent, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, listAgentsByOwner, ownerID)
	if err != nil {
		log.Err(err).
			Str("func", "*agentRepository.ListAgentsByOwner").
			Int64("owner_id", ownerID).
			Msg("failed to execute query for listing agents")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	agents := make([]models.Agent, 0, 10)

	for rows.Next() {
		agent, scanErr := scanAgent(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "*agentRepository.ListAgentsByOwner").
				Int64("owner_id", ownerID).
				Msg("failed to scan agent row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		agents = append(agents, agent)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "*agentRepository.ListAgentsByOwner").
			Int64("owner_id", ownerID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return agents, nil
}

// CountAgentsByOwner returns the number of non-retired agents owned by
// ownerID. Retired agents do not count against the per-user ceiling.
func (r *agentRepository) CountAgentsByOwner(ctx context.Context, ownerID int64) (int64, error) {
	log := logger.FromContext(ctx)

	var count int64
	if err := r.db.QueryRowContext(ctx, countAgentsByOwner, ownerID).Scan(&count); err != nil {
		log.Err(err).
			Str("func", "*agentRepository.CountAgentsByOwner").
			Int64("owner_id", ownerID).
			Msg("error: counting agents")
		return 0, fmt.Errorf("unexpected DB error: %w", err)
	}

	return count, nil
}

// buildUpdateAgentQuery assembles the partial UPDATE for [UpdateAgent]. Only
// non-nil fields of update contribute SET clauses; updated_at always does.
func buildUpdateAgentQuery(agentID string, update models.UpdateAgentRequest) (string, []any, error) {
	builder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update("agents").
		Set("updated_at", sq.Expr("NOW()"))

	if update.Name != nil {
		builder = builder.Set("name", *update.Name)
	}
	if update.Description != nil {
		builder = builder.Set("description", *update.Description)
	}
	if update.Status != nil {
		builder = builder.Set("status", *update.Status)
	}
	if update.Config != nil {
		builder = builder.Set("config", []byte(*update.Config))
	}

	return builder.
		Where(sq.Eq{"agent_id": agentID}).
		Suffix("RETURNING " + agentColumns).
		ToSql()
}

// UpdateAgent applies a partial update and returns the updated agent.
//
// Error handling:
//   - Unknown agent → [ErrAgentNotFound].
//   - unique_violation on the new name → [ErrAgentNameTaken].
func (r *agentRepository) UpdateAgent(ctx context.Context, agentID string, update models.UpdateAgentRequest) (models.Agent, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildUpdateAgentQuery(agentID, update)
	if err != nil {
		log.Err(err).
			Str("func", "*agentRepository.UpdateAgent").
			Str("agent_id", agentID).
			Msg("failed to build update query")
		return models.Agent{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)

	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Agent{}, ErrAgentNotFound
		}

		log.Err(err).
			Str("func", "*agentRepository.UpdateAgent").
			Str("agent_id", agentID).
			Msg("error: updating agent")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.Agent{}, ErrAgentNameTaken
		default:
			return models.Agent{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return agent, nil
}

// UpdateAgentStatus moves the agent from one lifecycle status to another as a
// compare-and-set: the UPDATE matches both the ID and the expected current
// status, so a concurrent change makes it a no-op.
//
// Error handling:
//   - Agent does not exist → [ErrAgentNotFound].
//   - Agent exists but its status is no longer from → [ErrStatusConflict].
func (r *agentRepository) UpdateAgentStatus(ctx context.Context, agentID string, from, to models.AgentStatus) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, updateAgentStatus, to, agentID, from)
	if err != nil {
		log.Err(err).
			Str("func", "*agentRepository.UpdateAgentStatus").
			Str("agent_id", agentID).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("error: updating agent status")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// No row matched: distinguish "no such agent" from "status raced".
	var exists bool
	if err := r.db.QueryRowContext(ctx, agentExists, agentID).Scan(&exists); err != nil {
		log.Err(err).
			Str("func", "*agentRepository.UpdateAgentStatus").
			Str("agent_id", agentID).
			Msg("error: checking agent existence")
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if !exists {
		return ErrAgentNotFound
	}

	return ErrStatusConflict
}

// RecordAgentResult folds one task outcome into the agent's rolled-up
// metrics. The running mean of the response time is maintained in SQL so no
// read-modify-write round trip is needed.
func (r *agentRepository) RecordAgentResult(ctx context.Context, agentID string, succeeded bool, responseTime float64) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, recordAgentResult, succeeded, responseTime, agentID)
	if err != nil {
		log.Err(err).
			Str("func", "*agentRepository.RecordAgentResult").
			Str("agent_id", agentID).
			Bool("succeeded", succeeded).
			Msg("error: recording agent result")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if affected == 0 {
		return ErrAgentNotFound
	}

	return nil
}
