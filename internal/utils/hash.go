package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashString computes an HMAC-SHA256 signature over data with the given key
// and returns it hex-encoded.
//
// The auth flow uses it to store refresh tokens: the database keeps only
// HashString(token, secret), so a leaked sessions table cannot be replayed
// without the server secret.
func HashString(data string, hashKey string) string {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write([]byte(data))
	return hex.EncodeToString(hasher.Sum(nil))
}
