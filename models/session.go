package models

import "time"

// Session is a server-side record of an issued refresh token. Only a keyed
// hash of the token is stored; the plaintext exists solely on the client.
type Session struct {
	// SessionID is the UUID assigned at login time.
	SessionID string `json:"id"`

	// UserID is the session owner.
	UserID int64 `json:"user_id"`

	// TokenHash is the hex-encoded HMAC-SHA256 digest of the refresh token,
	// keyed with the server secret.
	TokenHash string `json:"-"`

	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`

	// Revoked is set on logout and on refresh-token rotation.
	Revoked bool `json:"revoked"`
}

// TableName returns the name of the database table
// associated with the Session model.
func (s Session) TableName() string {
	return "sessions"
}

// Usable reports whether the session can still mint new token pairs.
func (s Session) Usable(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
