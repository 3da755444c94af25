package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

// walletRepository is the PostgreSQL-backed implementation of
// [WalletRepository]. Every balance mutation runs inside a transaction with
// SELECT ... FOR UPDATE row locks; locks are always acquired in wallet_id
// order so concurrent transfers over the same wallets cannot deadlock.
type walletRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewWalletRepository constructs a [WalletRepository] backed by the provided
// database connection and logger.
func NewWalletRepository(db *DB, logger *logger.Logger) WalletRepository {
	logger.Debug().Msg("creating wallet repository")
	return &walletRepository{
		db:     db,
		logger: logger,
	}
}

// scanWallet reads one wallet row in query column order.
func scanWallet(row rowScanner) (models.Wallet, error) {
	var wallet models.Wallet

	err := row.Scan(
		&wallet.WalletID,
		&wallet.UserID,
		&wallet.Address,
		&wallet.Balance,
		&wallet.StakedBalance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	return wallet, err
}

// CreateWallet inserts a new wallet row and returns it with server-assigned
// fields populated.
func (r *walletRepository) CreateWallet(ctx context.Context, wallet models.Wallet) (models.Wallet, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createWallet, wallet.UserID, wallet.Address)

	saved, err := scanWallet(row)
	if err != nil {
		log.Err(err).
			Str("func", "*walletRepository.CreateWallet").
			Int64("user_id", wallet.UserID).
			Msg("error: creating wallet")
		return models.Wallet{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return saved, nil
}

// GetWalletByUser retrieves the wallet owned by userID, or [ErrWalletNotFound].
func (r *walletRepository) GetWalletByUser(ctx context.Context, userID int64) (models.Wallet, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, getWalletByUser, userID)

	wallet, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Wallet{}, ErrWalletNotFound
		}

		log.Err(err).
			Str("func", "*walletRepository.GetWalletByUser").
			Int64("user_id", userID).
			Msg("error: getting wallet by user")
		return models.Wallet{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return wallet, nil
}

// GetWalletByAddress retrieves the wallet with the given address, or
// [ErrWalletNotFound].
func (r *walletRepository) GetWalletByAddress(ctx context.Context, address string) (models.Wallet, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, getWalletByAddress, address)

	wallet, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Wallet{}, ErrWalletNotFound
		}

		log.Err(err).
			Str("func", "*walletRepository.GetWalletByAddress").
			Str("address", address).
			Msg("error: getting wallet by address")
		return models.Wallet{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return wallet, nil
}

// Transfer moves amount from one wallet to another inside a single
// transaction. Both rows are locked with FOR UPDATE before the balances are
// read, so concurrent transfers serialize instead of double-spending.
//
// Error handling:
//   - Either address unknown → [ErrWalletNotFound].
//   - Spendable balance of the source below amount → [ErrInsufficientBalance].
func (r *walletRepository) Transfer(ctx context.Context, fromAddress, toAddress string, amount decimal.Decimal) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "*walletRepository.Transfer").
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	wallets, err := lockWallets(ctx, tx, []string{fromAddress, toAddress})
	if err != nil {
		log.Err(err).
			Str("func", "*walletRepository.Transfer").
			Str("from", fromAddress).
			Str("to", toAddress).
			Msg("failed to lock wallets")
		return err
	}

	from, ok := wallets[fromAddress]
	if !ok {
		return fmt.Errorf("source wallet: %w", ErrWalletNotFound)
	}
	to, ok := wallets[toAddress]
	if !ok {
		return fmt.Errorf("destination wallet: %w", ErrWalletNotFound)
	}

	if !from.CanSpend(amount) {
		return ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, setWalletBalance, from.Balance.Sub(amount), from.WalletID); err != nil {
		log.Err(err).
			Str("func", "*walletRepository.Transfer").
			Msg("failed to debit source wallet")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if _, err := tx.ExecContext(ctx, setWalletBalance, to.Balance.Add(amount), to.WalletID); err != nil {
		log.Err(err).
			Str("func", "*walletRepository.Transfer").
			Msg("failed to credit destination wallet")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "*walletRepository.Transfer").
			Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

// lockWallets locks the wallets with the given addresses FOR UPDATE and
// returns them keyed by address. Missing wallets are simply absent from the
// map; the caller decides whether that is an error.
func lockWallets(ctx context.Context, tx *sql.Tx, addresses []string) (map[string]models.Wallet, error) {
	rows, err := tx.QueryContext(ctx, lockWalletsByAddress, addresses)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	wallets := make(map[string]models.Wallet, len(addresses))

	for rows.Next() {
		wallet, scanErr := scanWallet(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		wallets[wallet.Address] = wallet
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return wallets, nil
}

// Stake moves amount from the spendable balance into the staked bucket and
// returns the updated wallet.
func (r *walletRepository) Stake(ctx context.Context, userID int64, amount decimal.Decimal) (models.Wallet, error) {
	return r.moveStake(ctx, userID, amount, true)
}

// Unstake moves amount from the staked bucket back to the spendable balance
// and returns the updated wallet.
func (r *walletRepository) Unstake(ctx context.Context, userID int64, amount decimal.Decimal) (models.Wallet, error) {
	return r.moveStake(ctx, userID, amount, false)
}

// moveStake locks the user's wallet and shifts amount between the spendable
// and staked buckets. The direction flag selects stake (true) or unstake
// (false).
func (r *walletRepository) moveStake(ctx context.Context, userID int64, amount decimal.Decimal, stake bool) (models.Wallet, error) {
	log := logger.FromContext(ctx)
	funcName := "*walletRepository.Unstake"
	if stake {
		funcName = "*walletRepository.Stake"
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to begin transaction")
		return models.Wallet{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, lockWalletByUser, userID)

	wallet, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Wallet{}, ErrWalletNotFound
		}

		log.Err(err).Str("func", funcName).Int64("user_id", userID).Msg("failed to lock wallet")
		return models.Wallet{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	var balance, staked decimal.Decimal
	if stake {
		if !wallet.CanSpend(amount) {
			return models.Wallet{}, ErrInsufficientBalance
		}
		balance = wallet.Balance.Sub(amount)
		staked = wallet.StakedBalance.Add(amount)
	} else {
		if wallet.StakedBalance.LessThan(amount) {
			return models.Wallet{}, ErrInsufficientBalance
		}
		balance = wallet.Balance.Add(amount)
		staked = wallet.StakedBalance.Sub(amount)
	}

	row = tx.QueryRowContext(ctx, setWalletBalances, balance, staked, wallet.WalletID)

	updated, err := scanWallet(row)
	if err != nil {
		log.Err(err).Str("func", funcName).Int64("user_id", userID).Msg("failed to update wallet balances")
		return models.Wallet{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).Str("func", funcName).Msg("failed to commit transaction")
		return models.Wallet{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return updated, nil
}

// EnsureTreasury creates the treasury wallet holding the initial token supply
// if it does not exist yet, and returns it. The insert is idempotent
// (ON CONFLICT DO NOTHING), so calling this on every startup is safe and the
// supply is never minted twice.
func (r *walletRepository) EnsureTreasury(ctx context.Context, address string, supply decimal.Decimal) (models.Wallet, error) {
	log := logger.FromContext(ctx)

	if _, err := r.db.ExecContext(ctx, insertTreasury, address, supply); err != nil {
		log.Err(err).
			Str("func", "*walletRepository.EnsureTreasury").
			Str("address", address).
			Msg("error: inserting treasury wallet")
		return models.Wallet{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	// user_id 0 is reserved for the treasury.
	return r.GetWalletByUser(ctx, 0)
}
