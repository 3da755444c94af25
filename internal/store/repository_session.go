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

// sessionRepository is the PostgreSQL-backed implementation of
// [SessionRepository]. Sessions carry only the keyed hash of a refresh token,
// never the token itself.
type sessionRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewSessionRepository constructs a [SessionRepository] backed by the provided
// database connection and logger.
func NewSessionRepository(db *DB, logger *logger.Logger) SessionRepository {
	logger.Debug().Msg("creating session repository")
	return &sessionRepository{
		db:     db,
		logger: logger,
	}
}

// CreateSession inserts a new refresh-token session row.
func (r *sessionRepository) CreateSession(ctx context.Context, session models.Session) (models.Session, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createSession,
		session.SessionID, session.UserID, session.TokenHash, session.ExpiresAt)

	if err := row.Scan(&session.SessionID, &session.UserID, &session.TokenHash,
		&session.ExpiresAt, &session.CreatedAt, &session.Revoked); err != nil {
		log.Err(err).
			Str("func", "*sessionRepository.CreateSession").
			Int64("user_id", session.UserID).
			Msg("error: creating session")
		return models.Session{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return session, nil
}

// FindSessionByTokenHash looks up the session holding the given refresh-token
// hash, or returns [ErrSessionNotFound].
func (r *sessionRepository) FindSessionByTokenHash(ctx context.Context, tokenHash string) (models.Session, error) {
	log := logger.FromContext(ctx)

	var session models.Session
	row := r.db.QueryRowContext(ctx, findSessionByTokenHash, tokenHash)

	if err := row.Scan(&session.SessionID, &session.UserID, &session.TokenHash,
		&session.ExpiresAt, &session.CreatedAt, &session.Revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}

		log.Err(err).
			Str("func", "*sessionRepository.FindSessionByTokenHash").
			Msg("error: finding session by token hash")
		return models.Session{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return session, nil
}

// RevokeSession marks the session revoked so it can no longer mint token
// pairs. Revoking a session that does not exist returns [ErrSessionNotFound].
func (r *sessionRepository) RevokeSession(ctx context.Context, sessionID string) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, revokeSession, sessionID)
	if err != nil {
		log.Err(err).
			Str("func", "*sessionRepository.RevokeSession").
			Str("session_id", sessionID).
			Msg("error: revoking session")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteExpiredSessions removes all sessions that expired before the given
// time and returns the number of rows deleted. Called periodically by the
// session sweeper.
func (r *sessionRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, deleteExpiredSessions, before)
	if err != nil {
		log.Err(err).
			Str("func", "*sessionRepository.DeleteExpiredSessions").
			Time("before", before).
			Msg("error: deleting expired sessions")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unexpected DB error: %w", err)
	}

	return deleted, nil
}
