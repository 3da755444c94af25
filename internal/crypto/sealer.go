package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// keySealer is the private implementation of [KeySealer]. Each sealed blob
// carries its own random salt, so the AES key is unique per secret:
//
//	blob = salt (16 bytes) ‖ nonce (12 bytes) ‖ ciphertext
type keySealer struct {
	secret []byte

	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
}

// NewKeySealer constructs a [KeySealer] bound to the platform secret.
// Provider API keys sealed by one deployment cannot be opened by another
// with a different SECRET_KEY.
func NewKeySealer(secret string) KeySealer {
	return &keySealer{
		secret:       []byte(secret),
		argonTime:    1,
		argonMemory:  64 * 1024,
		argonThreads: 4,
	}
}

const sealerSaltLen = 16

// Seal implements [KeySealer].
func (s *keySealer) Seal(plaintext string) (string, error) {
	salt := make([]byte, sealerSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := s.cipherFor(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Open implements [KeySealer].
func (s *keySealer) Open(sealed string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	if len(blob) < sealerSaltLen {
		return "", ErrCiphertextTooShort
	}

	salt, rest := blob[:sealerSaltLen], blob[sealerSaltLen:]

	gcm, err := s.cipherFor(salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize {
		return "", ErrCiphertextTooShort
	}
	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]

	// An auth-tag mismatch here almost always means the blob was sealed
	// under a different platform secret.
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("open sealed key: %w", err)
	}

	return string(plaintext), nil
}

func (s *keySealer) cipherFor(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(s.secret, salt, s.argonTime, s.argonMemory, s.argonThreads, 32)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
