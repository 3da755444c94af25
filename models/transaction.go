package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxType classifies ledger transactions.
type TxType string

// Transaction types.
const (
	TxTransfer TxType = "transfer"
	TxPurchase TxType = "purchase"
	TxFee      TxType = "fee"
	TxStake    TxType = "stake"
	TxUnstake  TxType = "unstake"
	TxGrant    TxType = "grant"
	TxUsage    TxType = "usage"
)

// TxStatus is the confirmation state of a transaction.
type TxStatus string

// Transaction states.
const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Transaction is one immutable ledger entry. Both endpoints are recorded as
// wallet addresses; grants originate from the treasury address.
type Transaction struct {
	// TxID is the UUID assigned when the transaction is recorded.
	TxID string `json:"id"`

	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`

	Amount decimal.Decimal `json:"amount"`

	Type   TxType   `json:"type"`
	Status TxStatus `json:"status"`

	// Reference links the transaction to the entity that caused it
	// (listing ID for purchases and fees, task ID for usage charges).
	Reference string `json:"reference,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the Transaction model.
func (t Transaction) TableName() string {
	return "transactions"
}
