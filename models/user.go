package models

import "time"

// User represents an account entity used for authentication and authorization.
// It contains identity attributes and credential-related data.
// Sensitive fields must never be exposed outside trusted boundaries.
type User struct {
	// UserID is the internal unique identifier of the user.
	UserID int64 `json:"id"`

	// Email is the unique address used during authentication.
	Email string `json:"email"`

	// Username is the unique public handle of the user.
	// It is non-sensitive and may be shown in UI and marketplace listings.
	Username string `json:"username"`

	// PasswordHash stores the Argon2id-encoded password digest.
	// This value MUST be a derived value (KDF output), never plaintext.
	// It is never exposed via JSON.
	PasswordHash string `json:"-"`

	// IsActive reports whether the account may authenticate.
	// Deactivated accounts keep their agents and wallet but cannot log in.
	IsActive bool `json:"is_active"`

	// IsSuperuser grants access to administrative operations
	// such as faucet grants outside of debug mode.
	IsSuperuser bool `json:"is_superuser"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp of the last account modification.
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
