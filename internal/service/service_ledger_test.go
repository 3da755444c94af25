package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/internal/validators"
	"github.com/MKhiriev/go-agent-platform/models"
)

const testTreasury = "0x0000000000000000000000000000000000000001"

// ─────────────────────────────────────────────
// Helper
// ─────────────────────────────────────────────

func newTestLedgerService(wallets *mockWalletRepository, txs *mockTransactionRepository) *ledgerService {
	return &ledgerService{
		walletRepository:      wallets,
		transactionRepository: txs,
		validator:             validators.NewRequestValidator(),
		uuid:                  utils.NewUUIDGenerator(),
		treasuryAddress:       testTreasury,
		initialSupply:         decimal.NewFromInt(1000000),
		minStake:              decimal.NewFromInt(100),
		logger:                logger.Nop(),
	}
}

const peerAddress = "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"

func userWallet() models.Wallet {
	return models.Wallet{
		WalletID: 1,
		UserID:   42,
		Address:  "0x1111111111111111111111111111111111111111",
		Balance:  decimal.NewFromInt(500),
	}
}

// ─────────────────────────────────────────────
// Bootstrap / ProvisionWallet
// ─────────────────────────────────────────────

func TestLedgerService_Bootstrap_EnsuresTreasury(t *testing.T) {
	var gotAddress string
	var gotSupply decimal.Decimal
	wallets := &mockWalletRepository{
		ensureTreasuryFn: func(_ context.Context, address string, supply decimal.Decimal) (models.Wallet, error) {
			gotAddress = address
			gotSupply = supply
			return models.Wallet{Address: address, Balance: supply}, nil
		},
	}
	svc := newTestLedgerService(wallets, &mockTransactionRepository{})

	treasury, err := svc.Bootstrap(context.Background())

	require.NoError(t, err)
	assert.Equal(t, testTreasury, gotAddress)
	assert.True(t, decimal.NewFromInt(1000000).Equal(gotSupply))
	assert.Equal(t, testTreasury, treasury.Address)
}

func TestLedgerService_ProvisionWallet_FundsStarterGrant(t *testing.T) {
	var created models.Wallet
	var grantFrom, grantTo string
	var grantAmount decimal.Decimal
	wallets := &mockWalletRepository{
		createWalletFn: func(_ context.Context, wallet models.Wallet) (models.Wallet, error) {
			created = wallet
			return wallet, nil
		},
		transferFn: func(_ context.Context, fromAddress, toAddress string, amount decimal.Decimal) error {
			grantFrom, grantTo = fromAddress, toAddress
			grantAmount = amount
			return nil
		},
	}
	var recorded models.Transaction
	txs := &mockTransactionRepository{
		recordTransactionFn: func(_ context.Context, tx models.Transaction) (models.Transaction, error) {
			recorded = tx
			return tx, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	wallet, err := svc.ProvisionWallet(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), created.UserID)
	assert.True(t, strings.HasPrefix(wallet.Address, "0x"))
	assert.Len(t, wallet.Address, 2+2*walletAddressLen)

	// 1000000 / 1000 = 1000 starter tokens from the treasury.
	assert.True(t, decimal.NewFromInt(1000).Equal(grantAmount), "grant amount: %s", grantAmount)
	assert.Equal(t, testTreasury, grantFrom)
	assert.Equal(t, wallet.Address, grantTo)
	assert.True(t, decimal.NewFromInt(1000).Equal(wallet.Balance))

	assert.Equal(t, models.TxGrant, recorded.Type)
	assert.Equal(t, models.TxConfirmed, recorded.Status)
}

func TestLedgerService_ProvisionWallet_GrantFailureLeavesEmptyWallet(t *testing.T) {
	wallets := &mockWalletRepository{
		transferFn: func(_ context.Context, _, _ string, _ decimal.Decimal) error {
			return store.ErrInsufficientBalance
		},
	}
	txs := &mockTransactionRepository{
		recordTransactionFn: func(_ context.Context, _ models.Transaction) (models.Transaction, error) {
			t.Fatal("no ledger entry expected for an unfunded grant")
			return models.Transaction{}, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	wallet, err := svc.ProvisionWallet(context.Background(), 42)

	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())
}

// ─────────────────────────────────────────────
// Faucet
// ─────────────────────────────────────────────

func TestLedgerService_Faucet_CreditsFromTreasury(t *testing.T) {
	wallet := userWallet()
	var grantFrom, grantTo string
	var grantAmount decimal.Decimal
	funded := false
	wallets := &mockWalletRepository{
		getWalletByUserFn: func(_ context.Context, _ int64) (models.Wallet, error) {
			if funded {
				refreshed := wallet
				refreshed.Balance = wallet.Balance.Add(decimal.NewFromInt(500))
				return refreshed, nil
			}
			return wallet, nil
		},
		transferFn: func(_ context.Context, fromAddress, toAddress string, amount decimal.Decimal) error {
			grantFrom, grantTo = fromAddress, toAddress
			grantAmount = amount
			funded = true
			return nil
		},
	}
	var recorded models.Transaction
	txs := &mockTransactionRepository{
		recordTransactionFn: func(_ context.Context, tx models.Transaction) (models.Transaction, error) {
			recorded = tx
			return tx, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	got, err := svc.Faucet(context.Background(), 42, "500")

	require.NoError(t, err)
	assert.Equal(t, testTreasury, grantFrom)
	assert.Equal(t, wallet.Address, grantTo)
	assert.True(t, decimal.NewFromInt(500).Equal(grantAmount))
	assert.True(t, decimal.NewFromInt(1000).Equal(got.Balance), "balance: %s", got.Balance)
	assert.Equal(t, models.TxGrant, recorded.Type)
	assert.Equal(t, models.TxConfirmed, recorded.Status)
}

func TestLedgerService_Faucet_InvalidAmount(t *testing.T) {
	svc := newTestLedgerService(&mockWalletRepository{}, &mockTransactionRepository{})

	_, err := svc.Faucet(context.Background(), 42, "-5")

	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestLedgerService_Faucet_DrainedTreasury(t *testing.T) {
	wallet := userWallet()
	wallets := &mockWalletRepository{
		getWalletByUserFn: func(_ context.Context, _ int64) (models.Wallet, error) {
			return wallet, nil
		},
		transferFn: func(_ context.Context, _, _ string, _ decimal.Decimal) error {
			return store.ErrInsufficientBalance
		},
	}
	txs := &mockTransactionRepository{
		recordTransactionFn: func(_ context.Context, _ models.Transaction) (models.Transaction, error) {
			t.Fatal("no ledger entry expected for an unfunded grant")
			return models.Transaction{}, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	_, err := svc.Faucet(context.Background(), 42, "500")

	assert.ErrorIs(t, err, store.ErrInsufficientBalance)
}

// ─────────────────────────────────────────────
// Transfer
// ─────────────────────────────────────────────

func TestLedgerService_Transfer_Success(t *testing.T) {
	wallet := userWallet()
	var movedAmount decimal.Decimal
	wallets := &mockWalletRepository{
		getWalletByUserFn: func(_ context.Context, _ int64) (models.Wallet, error) {
			return wallet, nil
		},
		transferFn: func(_ context.Context, fromAddress, toAddress string, amount decimal.Decimal) error {
			assert.Equal(t, wallet.Address, fromAddress)
			assert.Equal(t, peerAddress, toAddress)
			movedAmount = amount
			return nil
		},
	}
	var recorded models.Transaction
	txs := &mockTransactionRepository{
		recordTransactionFn: func(_ context.Context, tx models.Transaction) (models.Transaction, error) {
			recorded = tx
			return tx, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	tx, err := svc.Transfer(context.Background(), 42, models.TransferRequest{
		ToAddress: peerAddress,
		Amount:    "123.45",
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("123.45").Equal(movedAmount))
	assert.Equal(t, models.TxTransfer, recorded.Type)
	assert.Equal(t, models.TxConfirmed, recorded.Status)
	assert.Equal(t, recorded.TxID, tx.TxID)

	metrics := svc.Metrics()
	assert.Equal(t, int64(1), metrics.TotalTransfers)
	assert.Equal(t, int64(1), metrics.SuccessfulTransfers)
	assert.True(t, decimal.RequireFromString("123.45").Equal(metrics.Volume))
}

func TestLedgerService_Transfer_InsufficientBalance(t *testing.T) {
	wallets := &mockWalletRepository{
		getWalletByUserFn: func(_ context.Context, _ int64) (models.Wallet, error) {
			return userWallet(), nil
		},
		transferFn: func(_ context.Context, _, _ string, _ decimal.Decimal) error {
			return store.ErrInsufficientBalance
		},
	}
	var recorded models.Transaction
	txs := &mockTransactionRepository{
		recordTransactionFn: func(_ context.Context, tx models.Transaction) (models.Transaction, error) {
			recorded = tx
			return tx, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	_, err := svc.Transfer(context.Background(), 42, models.TransferRequest{
		ToAddress: peerAddress,
		Amount:    "9999",
	})

	require.ErrorIs(t, err, store.ErrInsufficientBalance)
	// The rejected attempt still shows up in the history.
	assert.Equal(t, models.TxFailed, recorded.Status)

	metrics := svc.Metrics()
	assert.Equal(t, int64(1), metrics.FailedTransfers)
	assert.True(t, metrics.Volume.IsZero())
}

func TestLedgerService_Transfer_SelfTransfer(t *testing.T) {
	wallet := userWallet()
	wallets := &mockWalletRepository{
		getWalletByUserFn: func(_ context.Context, _ int64) (models.Wallet, error) {
			return wallet, nil
		},
	}
	svc := newTestLedgerService(wallets, &mockTransactionRepository{})

	_, err := svc.Transfer(context.Background(), 42, models.TransferRequest{
		ToAddress: wallet.Address,
		Amount:    "10",
	})

	require.ErrorIs(t, err, ErrSelfTransfer)
}

func TestLedgerService_Transfer_InvalidAmount(t *testing.T) {
	svc := newTestLedgerService(&mockWalletRepository{}, &mockTransactionRepository{})

	for _, amount := range []string{"", "abc", "-5", "0"} {
		_, err := svc.Transfer(context.Background(), 42, models.TransferRequest{
			ToAddress: peerAddress,
			Amount:    amount,
		})
		require.ErrorIs(t, err, ErrInvalidDataProvided, "amount %q", amount)
	}
}

// ─────────────────────────────────────────────
// Stake / Unstake
// ─────────────────────────────────────────────

func TestLedgerService_Stake_Success(t *testing.T) {
	staked := userWallet()
	staked.Balance = decimal.NewFromInt(300)
	staked.StakedBalance = decimal.NewFromInt(200)

	wallets := &mockWalletRepository{
		stakeFn: func(_ context.Context, userID int64, amount decimal.Decimal) (models.Wallet, error) {
			assert.Equal(t, int64(42), userID)
			assert.True(t, decimal.NewFromInt(200).Equal(amount))
			return staked, nil
		},
	}
	var recorded models.Transaction
	txs := &mockTransactionRepository{
		recordTransactionFn: func(_ context.Context, tx models.Transaction) (models.Transaction, error) {
			recorded = tx
			return tx, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	wallet, err := svc.Stake(context.Background(), 42, "200")

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(wallet.StakedBalance))
	assert.Equal(t, models.TxStake, recorded.Type)
	assert.Equal(t, wallet.Address, recorded.FromAddress)
	assert.Equal(t, wallet.Address, recorded.ToAddress)
}

func TestLedgerService_Stake_BelowMinimum(t *testing.T) {
	svc := newTestLedgerService(&mockWalletRepository{}, &mockTransactionRepository{})

	_, err := svc.Stake(context.Background(), 42, "99.99")

	require.ErrorIs(t, err, ErrStakeTooSmall)
}

func TestLedgerService_Unstake_Success(t *testing.T) {
	released := userWallet()
	released.StakedBalance = decimal.Zero

	wallets := &mockWalletRepository{
		unstakeFn: func(_ context.Context, _ int64, amount decimal.Decimal) (models.Wallet, error) {
			assert.True(t, decimal.NewFromInt(50).Equal(amount))
			return released, nil
		},
	}
	var recorded models.Transaction
	txs := &mockTransactionRepository{
		recordTransactionFn: func(_ context.Context, tx models.Transaction) (models.Transaction, error) {
			recorded = tx
			return tx, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	_, err := svc.Unstake(context.Background(), 42, "50")

	require.NoError(t, err)
	assert.Equal(t, models.TxUnstake, recorded.Type)
}

func TestLedgerService_Unstake_MoreThanStaked(t *testing.T) {
	wallets := &mockWalletRepository{
		unstakeFn: func(_ context.Context, _ int64, _ decimal.Decimal) (models.Wallet, error) {
			return models.Wallet{}, store.ErrInsufficientBalance
		},
	}
	svc := newTestLedgerService(wallets, &mockTransactionRepository{})

	_, err := svc.Unstake(context.Background(), 42, "50")

	require.ErrorIs(t, err, store.ErrInsufficientBalance)
}

// ─────────────────────────────────────────────
// GetTransaction
// ─────────────────────────────────────────────

func TestLedgerService_GetTransaction_Participant(t *testing.T) {
	wallet := userWallet()
	wallets := &mockWalletRepository{
		getWalletByUserFn: func(_ context.Context, _ int64) (models.Wallet, error) {
			return wallet, nil
		},
	}
	txs := &mockTransactionRepository{
		getTransactionFn: func(_ context.Context, txID string) (models.Transaction, error) {
			return models.Transaction{TxID: txID, FromAddress: wallet.Address, ToAddress: peerAddress}, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	tx, err := svc.GetTransaction(context.Background(), 42, "tx-1")

	require.NoError(t, err)
	assert.Equal(t, "tx-1", tx.TxID)
}

func TestLedgerService_GetTransaction_Stranger(t *testing.T) {
	wallets := &mockWalletRepository{
		getWalletByUserFn: func(_ context.Context, _ int64) (models.Wallet, error) {
			return userWallet(), nil
		},
	}
	txs := &mockTransactionRepository{
		getTransactionFn: func(_ context.Context, txID string) (models.Transaction, error) {
			return models.Transaction{
				TxID:        txID,
				FromAddress: peerAddress,
				ToAddress:   "0x2222222222222222222222222222222222222222",
			}, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	_, err := svc.GetTransaction(context.Background(), 42, "tx-1")

	require.ErrorIs(t, err, ErrNotTransactionParty)
}

// ─────────────────────────────────────────────
// ChargeUsage
// ─────────────────────────────────────────────

func TestLedgerService_ChargeUsage_FlowsToTreasury(t *testing.T) {
	wallet := userWallet()
	var gotFrom, gotTo string
	wallets := &mockWalletRepository{
		getWalletByUserFn: func(_ context.Context, _ int64) (models.Wallet, error) {
			return wallet, nil
		},
		transferFn: func(_ context.Context, fromAddress, toAddress string, _ decimal.Decimal) error {
			gotFrom, gotTo = fromAddress, toAddress
			return nil
		},
	}
	var recorded models.Transaction
	txs := &mockTransactionRepository{
		recordTransactionFn: func(_ context.Context, tx models.Transaction) (models.Transaction, error) {
			recorded = tx
			return tx, nil
		},
	}
	svc := newTestLedgerService(wallets, txs)

	tx, err := svc.ChargeUsage(context.Background(), 42, decimal.RequireFromString("0.042"), "task-1")

	require.NoError(t, err)
	assert.Equal(t, wallet.Address, gotFrom)
	assert.Equal(t, testTreasury, gotTo)
	assert.Equal(t, models.TxUsage, recorded.Type)
	assert.Equal(t, "task-1", recorded.Reference)
	assert.Equal(t, "task-1", tx.Reference)
}

func TestLedgerService_ChargeUsage_NonPositiveAmount(t *testing.T) {
	svc := newTestLedgerService(&mockWalletRepository{}, &mockTransactionRepository{})

	_, err := svc.ChargeUsage(context.Background(), 42, decimal.Zero, "task-1")

	require.ErrorIs(t, err, ErrInvalidDataProvided)
}
