package models

import "encoding/json"

// RegisterRequest is the payload of POST /api/user/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the payload of POST /api/user/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the payload of POST /api/user/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// CreateAgentRequest is the payload of POST /api/agents.
type CreateAgentRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        ServiceType     `json:"type"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// UpdateAgentRequest is the payload of PUT /api/agents/{agentID}.
// Nil fields are left unchanged.
type UpdateAgentRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Status      *AgentStatus     `json:"status,omitempty"`
	Config      *json.RawMessage `json:"config,omitempty"`
}

// SubmitTaskRequest is the payload of POST /api/agents/{agentID}/tasks.
type SubmitTaskRequest struct {
	Priority int             `json:"priority"`
	Payload  json.RawMessage `json:"payload"`
}

// TransferRequest is the payload of POST /api/wallet/transfer.
// Amount is a decimal string to avoid float rounding on the wire.
type TransferRequest struct {
	ToAddress string `json:"to_address"`
	Amount    string `json:"amount"`
}

// StakeRequest is the payload of POST /api/wallet/stake and
// POST /api/wallet/unstake.
type StakeRequest struct {
	Amount string `json:"amount"`
}

// CreateListingRequest is the payload of POST /api/marketplace/listings.
type CreateListingRequest struct {
	AgentID     string   `json:"agent_id"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	TTLHours    int      `json:"ttl_hours,omitempty"`
}

// UpdateListingRequest is the payload of PATCH /api/marketplace/listings/{listingID}.
// Nil fields are left unchanged; only the description, price, and tags of an
// active listing may be changed.
type UpdateListingRequest struct {
	Description *string   `json:"description,omitempty"`
	Price       *string   `json:"price,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}
