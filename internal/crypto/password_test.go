package crypto

import (
	"strings"
	"testing"
)

func TestPasswordHash_RoundTrip(t *testing.T) {
	h := NewPasswordHasher()

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := h.Verify("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to verify against its own hash")
	}
}

func TestPasswordHash_WrongPassword(t *testing.T) {
	h := NewPasswordHasher()

	encoded, err := h.Hash("right password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := h.Verify("wrong password", encoded)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch for wrong password")
	}
}

func TestPasswordHash_SaltsDiffer(t *testing.T) {
	h := NewPasswordHasher()

	e1, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	e2, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if e1 == e2 {
		t.Fatalf("expected different encodings for the same password (random salt)")
	}

	// both must still verify
	for _, e := range []string{e1, e2} {
		ok, err := h.Verify("same password", e)
		if err != nil || !ok {
			t.Fatalf("Verify(%q) = %v, %v; want true, nil", e, ok, err)
		}
	}
}

func TestPasswordHash_PHCEncoding(t *testing.T) {
	h := NewPasswordHasher()

	encoded, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=1,p=4$") {
		t.Fatalf("unexpected encoding prefix: %q", encoded)
	}
	if parts := strings.Split(encoded, "$"); len(parts) != 6 {
		t.Fatalf("expected 6 dollar-separated segments, got %d", len(parts))
	}
}

func TestPasswordVerify_MalformedEncodings(t *testing.T) {
	h := NewPasswordHasher()

	cases := []string{
		"",
		"plainhash",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=banana,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!",
	}

	for _, encoded := range cases {
		if _, err := h.Verify("pw", encoded); err == nil {
			t.Fatalf("Verify(%q) expected error, got nil", encoded)
		}
	}
}
