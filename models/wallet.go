package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the platform-token account of a user. Each user has exactly one
// wallet, created during registration. Balance and StakedBalance are kept in
// token units with 18 decimal places of precision.
type Wallet struct {
	WalletID int64 `json:"-"`

	// UserID references the wallet owner. Zero for the treasury wallet.
	UserID int64 `json:"user_id"`

	// Address is the public wallet identifier used in transactions,
	// formatted as a 0x-prefixed 40-character hex string.
	Address string `json:"address"`

	// Balance is the freely spendable amount.
	Balance decimal.Decimal `json:"balance"`

	// StakedBalance is the amount locked by staking. Staked tokens cannot
	// be spent or transferred until unstaked.
	StakedBalance decimal.Decimal `json:"staked_balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the Wallet model.
func (w Wallet) TableName() string {
	return "wallets"
}

// Total returns the sum of the spendable and staked balances.
func (w Wallet) Total() decimal.Decimal {
	return w.Balance.Add(w.StakedBalance)
}

// CanSpend reports whether the spendable balance covers amount.
func (w Wallet) CanSpend(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
