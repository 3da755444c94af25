package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus is the lifecycle state of a marketplace listing.
type ListingStatus string

// Listing lifecycle states.
const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
	ListingExpired   ListingStatus = "expired"
)

// Listing is an offer to sell an agent on the marketplace. At most one
// active listing may exist per agent; a completed purchase transfers the
// agent to the buyer and marks the listing sold.
type Listing struct {
	// ListingID is the UUID assigned at creation time.
	ListingID string `json:"id"`

	// AgentID references the agent being sold.
	AgentID string `json:"agent_id"`

	// SellerID is the agent's owner at listing time.
	SellerID int64 `json:"seller_id"`

	// BuyerID is set when the listing is sold.
	BuyerID *int64 `json:"buyer_id,omitempty"`

	// Price is the amount the seller receives. The marketplace fee is added
	// on top, so the buyer pays Price plus the fee.
	Price decimal.Decimal `json:"price"`

	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`

	Status ListingStatus `json:"status"`

	// Views counts how many times the listing was opened. Maintained
	// best-effort; not part of any invariant.
	Views int64 `json:"views"`

	// Favorites counts the users that bookmarked the listing.
	Favorites int64 `json:"favorites"`

	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	SoldAt    *time.Time `json:"sold_at,omitempty"`
}

// TableName returns the name of the database table
// associated with the Listing model.
func (l Listing) TableName() string {
	return "listings"
}

// Purchasable reports whether the listing can currently be bought.
func (l Listing) Purchasable(now time.Time) bool {
	if l.Status != ListingActive {
		return false
	}
	if l.ExpiresAt != nil && !now.Before(*l.ExpiresAt) {
		return false
	}
	return true
}

// ListingFilter narrows marketplace searches. Zero values mean "no
// constraint" for the corresponding field.
type ListingFilter struct {
	SellerID    int64
	ServiceType ServiceType
	Status      ListingStatus
	Tag         string
	MinPrice    decimal.Decimal
	MaxPrice    decimal.Decimal
	Query       string // substring match on description
	Limit       uint64
	Offset      uint64
}
