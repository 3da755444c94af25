package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/internal/validators"
	"github.com/MKhiriev/go-agent-platform/models"
)

// starterGrantDivisor sets the registration grant as a fraction of the
// initial token supply. With the default supply of 1 000 000 every new
// account starts with 1 000 tokens.
const starterGrantDivisor = 1000

// walletAddressLen is the number of random bytes behind a wallet address.
// Hex-encoded with the 0x prefix this yields the 42-character form.
const walletAddressLen = 20

// ledgerService is the concrete implementation of [LedgerService]. It keeps
// the wallet invariant simple: every token that leaves one wallet arrives in
// another within the same database transaction, and every movement leaves an
// immutable ledger entry behind.
type ledgerService struct {
	walletRepository      store.WalletRepository
	transactionRepository store.TransactionRepository

	validator validators.Validator
	uuid      *utils.UUIDGenerator

	treasuryAddress string
	initialSupply   decimal.Decimal
	minStake        decimal.Decimal

	mu      sync.Mutex
	metrics LedgerMetrics

	logger *logger.Logger
}

// NewLedgerService constructs a [LedgerService] bound to the treasury and
// economy parameters from cfg.
func NewLedgerService(
	walletRepository store.WalletRepository,
	transactionRepository store.TransactionRepository,
	chainCfg config.Chain,
	economyCfg config.Economy,
	logger *logger.Logger,
) LedgerService {
	return &ledgerService{
		walletRepository:      walletRepository,
		transactionRepository: transactionRepository,
		validator:             validators.NewRequestValidator(),
		uuid:                  utils.NewUUIDGenerator(),
		treasuryAddress:       chainCfg.TreasuryAddress,
		initialSupply:         economyCfg.InitialSupplyAmount(),
		minStake:              economyCfg.MinStakeAmount(),
		logger:                logger,
	}
}

// Bootstrap implements [LedgerService]. It is called once on startup and is
// idempotent: an existing treasury wallet is returned untouched.
func (l *ledgerService) Bootstrap(ctx context.Context) (models.Wallet, error) {
	log := logger.FromContext(ctx)

	treasury, err := l.walletRepository.EnsureTreasury(ctx, l.treasuryAddress, l.initialSupply)
	if err != nil {
		log.Err(err).Str("address", l.treasuryAddress).Msg("treasury bootstrap failed")
		return models.Wallet{}, fmt.Errorf("treasury bootstrap failed: %w", err)
	}

	log.Info().
		Str("address", treasury.Address).
		Str("balance", treasury.Balance.String()).
		Msg("treasury ready")
	return treasury, nil
}

// ProvisionWallet implements [LedgerService]. The starter grant is funded
// from the treasury; if the treasury cannot cover it the wallet is still
// created, just empty.
func (l *ledgerService) ProvisionWallet(ctx context.Context, userID int64) (models.Wallet, error) {
	log := logger.FromContext(ctx)

	address, err := generateWalletAddress()
	if err != nil {
		return models.Wallet{}, fmt.Errorf("wallet address generation failed: %w", err)
	}

	now := time.Now()
	wallet, err := l.walletRepository.CreateWallet(ctx, models.Wallet{
		UserID:    userID,
		Address:   address,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("wallet creation ended with error")
		return models.Wallet{}, fmt.Errorf("wallet creation ended with error: %w", err)
	}

	grant := l.initialSupply.Div(decimal.NewFromInt(starterGrantDivisor))
	if err := l.walletRepository.Transfer(ctx, l.treasuryAddress, wallet.Address, grant); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("starter grant not funded")
		return wallet, nil
	}

	l.recordEntry(ctx, models.Transaction{
		TxID:        l.uuid.Generate(),
		FromAddress: l.treasuryAddress,
		ToAddress:   wallet.Address,
		Amount:      grant,
		Type:        models.TxGrant,
		Status:      models.TxConfirmed,
		CreatedAt:   time.Now(),
	})

	wallet.Balance = grant
	log.Info().Int64("user_id", userID).Str("address", wallet.Address).Msg("wallet provisioned")
	return wallet, nil
}

// Balance implements [LedgerService].
func (l *ledgerService) Balance(ctx context.Context, userID int64) (models.Wallet, error) {
	wallet, err := l.walletRepository.GetWalletByUser(ctx, userID)
	if err != nil {
		return models.Wallet{}, fmt.Errorf("wallet lookup failed: %w", err)
	}
	return wallet, nil
}

// Transfer implements [LedgerService]. Domain failures (unknown recipient,
// uncovered amount) are recorded as failed ledger entries so the history
// shows the attempt; infrastructure failures are not.
func (l *ledgerService) Transfer(ctx context.Context, userID int64, req models.TransferRequest) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	if err := l.validator.Validate(ctx, req); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("invalid transfer data")
		return models.Transaction{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return models.Transaction{}, err
	}

	wallet, err := l.walletRepository.GetWalletByUser(ctx, userID)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("sender wallet lookup failed")
		return models.Transaction{}, fmt.Errorf("sender wallet lookup failed: %w", err)
	}

	if wallet.Address == req.ToAddress {
		return models.Transaction{}, ErrSelfTransfer
	}

	entry := models.Transaction{
		TxID:        l.uuid.Generate(),
		FromAddress: wallet.Address,
		ToAddress:   req.ToAddress,
		Amount:      amount,
		Type:        models.TxTransfer,
		Status:      models.TxConfirmed,
		CreatedAt:   time.Now(),
	}

	if err := l.walletRepository.Transfer(ctx, wallet.Address, req.ToAddress, amount); err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) || errors.Is(err, store.ErrWalletNotFound) {
			entry.Status = models.TxFailed
			l.recordEntry(ctx, entry)
			l.countTransfer(false, amount)
			log.Warn().Err(err).Str("tx_id", entry.TxID).Msg("transfer rejected")
			return models.Transaction{}, err
		}
		log.Err(err).Int64("user_id", userID).Msg("transfer ended with error")
		return models.Transaction{}, fmt.Errorf("transfer ended with error: %w", err)
	}

	recorded, err := l.transactionRepository.RecordTransaction(ctx, entry)
	if err != nil {
		// Funds already moved; surface the entry we meant to write.
		log.Err(err).Str("tx_id", entry.TxID).Msg("ledger entry recording failed")
		recorded = entry
	}

	l.countTransfer(true, amount)
	log.Info().
		Str("tx_id", recorded.TxID).
		Str("to", req.ToAddress).
		Str("amount", amount.String()).
		Msg("transfer completed")
	return recorded, nil
}

// Stake implements [LedgerService].
func (l *ledgerService) Stake(ctx context.Context, userID int64, amount string) (models.Wallet, error) {
	log := logger.FromContext(ctx)

	value, err := parseAmount(amount)
	if err != nil {
		return models.Wallet{}, err
	}
	if value.LessThan(l.minStake) {
		return models.Wallet{}, ErrStakeTooSmall
	}

	wallet, err := l.walletRepository.Stake(ctx, userID, value)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("staking ended with error")
		return models.Wallet{}, fmt.Errorf("staking ended with error: %w", err)
	}

	l.recordEntry(ctx, models.Transaction{
		TxID:        l.uuid.Generate(),
		FromAddress: wallet.Address,
		ToAddress:   wallet.Address,
		Amount:      value,
		Type:        models.TxStake,
		Status:      models.TxConfirmed,
		CreatedAt:   time.Now(),
	})

	return wallet, nil
}

// Unstake implements [LedgerService].
func (l *ledgerService) Unstake(ctx context.Context, userID int64, amount string) (models.Wallet, error) {
	log := logger.FromContext(ctx)

	value, err := parseAmount(amount)
	if err != nil {
		return models.Wallet{}, err
	}

	wallet, err := l.walletRepository.Unstake(ctx, userID, value)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("unstaking ended with error")
		return models.Wallet{}, fmt.Errorf("unstaking ended with error: %w", err)
	}

	l.recordEntry(ctx, models.Transaction{
		TxID:        l.uuid.Generate(),
		FromAddress: wallet.Address,
		ToAddress:   wallet.Address,
		Amount:      value,
		Type:        models.TxUnstake,
		Status:      models.TxConfirmed,
		CreatedAt:   time.Now(),
	})

	return wallet, nil
}

// Faucet implements [LedgerService].
func (l *ledgerService) Faucet(ctx context.Context, userID int64, amount string) (models.Wallet, error) {
	log := logger.FromContext(ctx)

	value, err := parseAmount(amount)
	if err != nil {
		return models.Wallet{}, err
	}

	wallet, err := l.walletRepository.GetWalletByUser(ctx, userID)
	if err != nil {
		return models.Wallet{}, fmt.Errorf("wallet lookup failed: %w", err)
	}

	if err := l.walletRepository.Transfer(ctx, l.treasuryAddress, wallet.Address, value); err != nil {
		log.Err(err).Int64("user_id", userID).Msg("faucet funding ended with error")
		return models.Wallet{}, fmt.Errorf("faucet funding ended with error: %w", err)
	}

	l.recordEntry(ctx, models.Transaction{
		TxID:        l.uuid.Generate(),
		FromAddress: l.treasuryAddress,
		ToAddress:   wallet.Address,
		Amount:      value,
		Type:        models.TxGrant,
		Status:      models.TxConfirmed,
		CreatedAt:   time.Now(),
	})

	funded, err := l.walletRepository.GetWalletByUser(ctx, userID)
	if err != nil {
		return models.Wallet{}, fmt.Errorf("wallet lookup failed: %w", err)
	}
	log.Info().Int64("user_id", userID).Str("amount", value.String()).Msg("faucet grant issued")
	return funded, nil
}

// History implements [LedgerService].
func (l *ledgerService) History(ctx context.Context, userID int64, limit uint64) ([]models.Transaction, error) {
	wallet, err := l.walletRepository.GetWalletByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("wallet lookup failed: %w", err)
	}

	history, err := l.transactionRepository.ListTransactionsByAddress(ctx, wallet.Address, limit)
	if err != nil {
		return nil, fmt.Errorf("transaction history lookup failed: %w", err)
	}
	return history, nil
}

// GetTransaction implements [LedgerService]. Only the sender and the
// recipient may read an entry.
func (l *ledgerService) GetTransaction(ctx context.Context, userID int64, txID string) (models.Transaction, error) {
	tx, err := l.transactionRepository.GetTransaction(ctx, txID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("transaction lookup failed: %w", err)
	}

	wallet, err := l.walletRepository.GetWalletByUser(ctx, userID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("wallet lookup failed: %w", err)
	}

	if tx.FromAddress != wallet.Address && tx.ToAddress != wallet.Address {
		return models.Transaction{}, ErrNotTransactionParty
	}

	return tx, nil
}

// ChargeUsage implements [LedgerService]. The charge flows from the user's
// wallet back to the treasury and references the task that caused it.
func (l *ledgerService) ChargeUsage(ctx context.Context, userID int64, amount decimal.Decimal, taskID string) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	if !amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, validators.ErrInvalidAmount)
	}

	wallet, err := l.walletRepository.GetWalletByUser(ctx, userID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("wallet lookup failed: %w", err)
	}

	if err := l.walletRepository.Transfer(ctx, wallet.Address, l.treasuryAddress, amount); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Str("task_id", taskID).Msg("usage charge failed")
		return models.Transaction{}, err
	}

	entry := models.Transaction{
		TxID:        l.uuid.Generate(),
		FromAddress: wallet.Address,
		ToAddress:   l.treasuryAddress,
		Amount:      amount,
		Type:        models.TxUsage,
		Status:      models.TxConfirmed,
		Reference:   taskID,
		CreatedAt:   time.Now(),
	}
	recorded, err := l.transactionRepository.RecordTransaction(ctx, entry)
	if err != nil {
		log.Err(err).Str("tx_id", entry.TxID).Msg("ledger entry recording failed")
		recorded = entry
	}

	return recorded, nil
}

// Metrics implements [LedgerService].
func (l *ledgerService) Metrics() LedgerMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.metrics
}

// recordEntry writes a ledger entry and only logs on failure. Used where
// the funds have already moved and the caller has nothing to roll back.
func (l *ledgerService) recordEntry(ctx context.Context, entry models.Transaction) {
	if _, err := l.transactionRepository.RecordTransaction(ctx, entry); err != nil {
		logger.FromContext(ctx).Err(err).Str("tx_id", entry.TxID).Msg("ledger entry recording failed")
	}
}

func (l *ledgerService) countTransfer(succeeded bool, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.metrics.TotalTransfers++
	if succeeded {
		l.metrics.SuccessfulTransfers++
		l.metrics.Volume = l.metrics.Volume.Add(amount)
	} else {
		l.metrics.FailedTransfers++
	}
}

// parseAmount converts a decimal string from a request into a positive
// amount.
func parseAmount(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil || !value.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, validators.ErrInvalidAmount)
	}
	return value, nil
}

func generateWalletAddress() (string, error) {
	buf := make([]byte, walletAddressLen)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(buf), nil
}
