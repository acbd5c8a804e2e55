package application

import (
	"strings"
	"testing"

	domainerrors "hireloop/contexts/identity-access/session-service/domain/errors"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", hash)
	}
	if err := VerifyPassword(hash, "correct-horse-battery"); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := VerifyPassword(hash, "wrong-password"); err != domainerrors.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	for _, hash := range []string{"", "plaintext", "$argon2id$v=19$bad"} {
		if err := VerifyPassword(hash, "anything"); err != domainerrors.ErrInvalidCredentials {
			t.Fatalf("expected ErrInvalidCredentials for %q, got %v", hash, err)
		}
	}
}
