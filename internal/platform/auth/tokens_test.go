package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", WithTokenTTL(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := issuer.Issue(Identity{
		UserID: "usr_001",
		Email:  "jane@example.com",
		Name:   "Jane",
		Role:   RoleCommercial,
	})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	identity, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if identity.UserID != "usr_001" {
		t.Errorf("unexpected user id %s", identity.UserID)
	}
	if identity.Email != "jane@example.com" {
		t.Errorf("unexpected email %s", identity.Email)
	}
	if identity.Role != RoleCommercial {
		t.Errorf("unexpected role %s", identity.Role)
	}
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	issued := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewTokenIssuer("test-secret",
		WithTokenTTL(time.Minute),
		WithClock(func() time.Time { return issued }),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := issuer.Issue(Identity{UserID: "usr_001", Role: RoleClient})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	original := jwt.TimeFunc
	jwt.TimeFunc = func() time.Time { return issued.Add(2 * time.Minute) }
	t.Cleanup(func() { jwt.TimeFunc = original })

	if _, err := issuer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	jwt.TimeFunc = func() time.Time { return issued.Add(30 * time.Second) }
	if _, err := issuer.Verify(token); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}
}

func TestTokenIssuerRejectsWrongSecret(t *testing.T) {
	issuer, err := NewTokenIssuer("secret-one")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, err := NewTokenIssuer("secret-two")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := issuer.Issue(Identity{UserID: "usr_001", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("  "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestPasswordHasherRoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(4)

	hash, err := hasher.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if err := hasher.Compare(hash, "hunter2"); err != nil {
		t.Fatalf("Compare rejected matching password: %v", err)
	}
	if err := hasher.Compare(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}
