package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceUsage is one billed provider call, recorded when a task completes.
type ServiceUsage struct {
	UsageID int64 `json:"-"`

	UserID  int64  `json:"user_id"`
	AgentID string `json:"agent_id"`
	TaskID  string `json:"task_id"`

	// Provider names the upstream that served the call (openai, anthropic,
	// stability, elevenlabs, sim).
	Provider string `json:"provider"`

	Type ServiceType `json:"type"`

	// Units is the billable quantity in the unit native to the service type
	// (tokens for text, images for generation, seconds for speech).
	Units int64 `json:"units"`

	Cost decimal.Decimal `json:"cost"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the ServiceUsage model.
func (u ServiceUsage) TableName() string {
	return "service_usage"
}

// UsageSummary aggregates a user's usage over one calendar day (UTC).
type UsageSummary struct {
	Day       time.Time       `json:"day"`
	Requests  int64           `json:"requests"`
	TotalCost decimal.Decimal `json:"total_cost"`
}
