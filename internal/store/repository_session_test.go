package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

var sessionColumns = []string{
	"session_id", "user_id", "token_hash", "expires_at", "created_at", "revoked",
}

func newTestSessionRepo(t *testing.T) (*sessionRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &sessionRepository{
		db:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func TestCreateSession_Success(t *testing.T) {
	repo, mock, db := newTestSessionRepo(t)
	defer db.Close()

	ctx := context.Background()
	now := time.Now()
	session := models.Session{
		SessionID: "s1",
		UserID:    42,
		TokenHash: "deadbeef",
		ExpiresAt: now.Add(720 * time.Hour),
	}

	rows := sqlmock.NewRows(sessionColumns).
		AddRow(session.SessionID, session.UserID, session.TokenHash, session.ExpiresAt, now, false)

	mock.ExpectQuery("INSERT INTO sessions").
		WithArgs(session.SessionID, session.UserID, session.TokenHash, session.ExpiresAt).
		WillReturnRows(rows)

	created, err := repo.CreateSession(ctx, session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Revoked {
		t.Error("expected fresh session to not be revoked")
	}
}

func TestFindSessionByTokenHash_NotFound(t *testing.T) {
	repo, mock, db := newTestSessionRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectQuery("SELECT session_id").
		WithArgs("unknown").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindSessionByTokenHash(ctx, "unknown")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRevokeSession_Success(t *testing.T) {
	repo, mock, db := newTestSessionRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectExec("UPDATE sessions SET revoked").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RevokeSession(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRevokeSession_NotFound(t *testing.T) {
	repo, mock, db := newTestSessionRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectExec("UPDATE sessions SET revoked").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RevokeSession(ctx, "ghost")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteExpiredSessions_ReportsCount(t *testing.T) {
	repo, mock, db := newTestSessionRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectExec("DELETE FROM sessions").
		WillReturnResult(sqlmock.NewResult(0, 12))

	deleted, err := repo.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 12 {
		t.Errorf("expected 12 deleted sessions, got %d", deleted)
	}
}
