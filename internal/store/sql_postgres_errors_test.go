package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify(t *testing.T) {
	classifier := NewPostgresErrorClassifier()

	tests := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{name: "nil error", err: nil, want: NonRetryable},
		{name: "plain error", err: errors.New("boom"), want: NonRetryable},
		{
			name: "deadlock is retryable",
			err:  &pgconn.PgError{Code: pgerrcode.DeadlockDetected},
			want: Retryable,
		},
		{
			name: "serialization failure is retryable",
			err:  &pgconn.PgError{Code: pgerrcode.SerializationFailure},
			want: Retryable,
		},
		{
			name: "connection failure is retryable",
			err:  &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			want: Retryable,
		},
		{
			name: "wrapped retryable error is still recognised",
			err:  fmt.Errorf("settling purchase: %w", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}),
			want: Retryable,
		},
		{
			name: "unique violation is not retryable",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			want: NonRetryable,
		},
		{
			name: "foreign key violation is not retryable",
			err:  &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			want: NonRetryable,
		},
		{
			name: "syntax error is not retryable",
			err:  &pgconn.PgError{Code: pgerrcode.SyntaxError},
			want: NonRetryable,
		},
		{
			name: "unknown code defaults to not retryable",
			err:  &pgconn.PgError{Code: "P0001"},
			want: NonRetryable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
