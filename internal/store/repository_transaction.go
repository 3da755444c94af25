package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

// transactionRepository is the PostgreSQL-backed implementation of
// [TransactionRepository]. Ledger entries are append-only; nothing here ever
// updates or deletes a row.
type transactionRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewTransactionRepository constructs a [TransactionRepository] backed by the
// provided database connection and logger.
func NewTransactionRepository(db *DB, logger *logger.Logger) TransactionRepository {
	logger.Debug().Msg("creating transaction repository")
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

// scanTransaction reads one ledger row in query column order.
func scanTransaction(row rowScanner) (models.Transaction, error) {
	var entry models.Transaction

	err := row.Scan(
		&entry.TxID,
		&entry.FromAddress,
		&entry.ToAddress,
		&entry.Amount,
		&entry.Type,
		&entry.Status,
		&entry.Reference,
		&entry.CreatedAt,
	)

	return entry, err
}

// RecordTransaction inserts one ledger entry and returns it as stored.
func (r *transactionRepository) RecordTransaction(ctx context.Context, entry models.Transaction) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, recordTransaction,
		entry.TxID, entry.FromAddress, entry.ToAddress, entry.Amount,
		entry.Type, entry.Status, entry.Reference, entry.CreatedAt)

	saved, err := scanTransaction(row)
	if err != nil {
		log.Err(err).
			Str("func", "*transactionRepository.RecordTransaction").
			Str("tx_id", entry.TxID).
			Str("type", string(entry.Type)).
			Msg("error: recording transaction")
		return models.Transaction{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return saved, nil
}

// GetTransaction retrieves the ledger entry with the given ID, or
// [ErrTransactionNotFound].
func (r *transactionRepository) GetTransaction(ctx context.Context, txID string) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, getTransaction, txID)

	entry, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, ErrTransactionNotFound
		}

		log.Err(err).
			Str("func", "*transactionRepository.GetTransaction").
			Str("tx_id", txID).
			Msg("error: getting transaction")
		return models.Transaction{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return entry, nil
}

// ListTransactionsByAddress retrieves the most recent ledger entries where
// the address appears on either side, newest first.
func (r *transactionRepository) ListTransactionsByAddress(ctx context.Context, address string, limit uint64) ([]models.Transaction, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, listTransactionsByAddress, address, limit)
	if err != nil {
		log.Err(err).
			Str("func", "*transactionRepository.ListTransactionsByAddress").
			Str("address", address).
			Msg("failed to execute query for listing transactions")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	entries := make([]models.Transaction, 0, limit)

	for rows.Next() {
		entry, scanErr := scanTransaction(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "*transactionRepository.ListTransactionsByAddress").
				Str("address", address).
				Msg("failed to scan transaction row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "*transactionRepository.ListTransactionsByAddress").
			Str("address", address).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return entries, nil
}
