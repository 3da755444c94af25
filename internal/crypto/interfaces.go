package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_mock.go -package=mock

// PasswordHasher derives and verifies password hashes. Implementations must
// be safe for concurrent use.
type PasswordHasher interface {
	// Hash derives a self-describing hash string from the plaintext
	// password. The returned value embeds the algorithm parameters and a
	// random salt, so it can be stored as-is and verified later without
	// extra bookkeeping.
	Hash(password string) (string, error)

	// Verify reports whether password matches the encoded hash previously
	// produced by Hash. The comparison of the derived keys is constant
	// time. An error is returned only for malformed encodings, never for a
	// plain mismatch.
	Verify(password, encoded string) (bool, error)
}

// KeySealer protects small secrets (provider API keys) at rest. The sealed
// form is safe to persist: without the platform secret it is random noise.
type KeySealer interface {
	// Seal encrypts plaintext and returns a self-contained base64 blob.
	Seal(plaintext string) (string, error)

	// Open decrypts a blob produced by Seal. It fails if the blob was
	// tampered with or was sealed under a different platform secret.
	Open(sealed string) (string, error)
}
