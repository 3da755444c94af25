package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

// usageRepository is the PostgreSQL-backed implementation of
// [UsageRepository]. Usage rows feed the daily spending ceiling and the
// billing summaries.
type usageRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUsageRepository constructs a [UsageRepository] backed by the provided
// database connection and logger.
func NewUsageRepository(db *DB, logger *logger.Logger) UsageRepository {
	logger.Debug().Msg("creating usage repository")
	return &usageRepository{
		db:     db,
		logger: logger,
	}
}

// RecordUsage inserts one billed provider call.
func (r *usageRepository) RecordUsage(ctx context.Context, usage models.ServiceUsage) error {
	log := logger.FromContext(ctx)

	_, err := r.db.ExecContext(ctx, recordUsage,
		usage.UserID, usage.AgentID, usage.TaskID, usage.Provider,
		usage.Type, usage.Units, usage.Cost)
	if err != nil {
		log.Err(err).
			Str("func", "*usageRepository.RecordUsage").
			Int64("user_id", usage.UserID).
			Str("task_id", usage.TaskID).
			Msg("error: recording usage")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// SummarizeUsageDay aggregates one user's request count and total cost over
// the UTC day containing the given time.
func (r *usageRepository) SummarizeUsageDay(ctx context.Context, userID int64, day time.Time) (models.UsageSummary, error) {
	log := logger.FromContext(ctx)

	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	summary := models.UsageSummary{Day: dayStart}
	row := r.db.QueryRowContext(ctx, summarizeUsageDay, userID, dayStart, dayEnd)

	if err := row.Scan(&summary.Requests, &summary.TotalCost); err != nil {
		log.Err(err).
			Str("func", "*usageRepository.SummarizeUsageDay").
			Int64("user_id", userID).
			Time("day", dayStart).
			Msg("error: summarizing usage")
		return models.UsageSummary{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return summary, nil
}
