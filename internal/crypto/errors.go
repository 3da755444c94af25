package crypto

import "errors"

var (
	// ErrMalformedHash indicates a stored password hash that does not
	// follow the expected PHC encoding.
	ErrMalformedHash = errors.New("malformed password hash")

	// ErrCiphertextTooShort indicates a sealed blob shorter than its
	// mandatory salt and nonce prefix.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)
