package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("Password@123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if digest == "Password@123" {
		t.Fatal("expected password to be hashed")
	}
	if !h.Verify("Password@123", digest) {
		t.Fatal("expected digest to verify")
	}
	if h.Verify("Password@124", digest) {
		t.Fatal("wrong password must not verify")
	}
}

func TestBcryptHasher_EmptyOrMalformedDigest(t *testing.T) {
	h := NewBcryptHasher(0)
	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.cost)
	}
	if h.Verify("x", "") || h.Verify("x", "not-a-bcrypt-hash") {
		t.Fatal("malformed digests must not verify")
	}
}
