package models

import "github.com/shopspring/decimal"

// HealthCheck is the outcome of probing one dependency.
type HealthCheck struct {
	Status string `json:"status"` // "ok" or "down"
	Error  string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health. Status is "ok" only when every
// individual check passed.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]HealthCheck `json:"checks"`
}

// BalanceResponse is the body of GET /api/wallet.
type BalanceResponse struct {
	Address       string          `json:"address"`
	Balance       decimal.Decimal `json:"balance"`
	StakedBalance decimal.Decimal `json:"staked_balance"`
	Total         decimal.Decimal `json:"total"`
}

// PurchaseResponse is the body of POST /api/marketplace/listings/{listingID}/purchase.
type PurchaseResponse struct {
	Listing Listing         `json:"listing"`
	Agent   Agent           `json:"agent"`
	Paid    decimal.Decimal `json:"paid"`
	Fee     decimal.Decimal `json:"fee"`
}

// CostEstimate is the body of GET /api/pricing/estimate.
type CostEstimate struct {
	Type       ServiceType     `json:"type"`
	Units      int64           `json:"units"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Total      decimal.Decimal `json:"total"`
}
