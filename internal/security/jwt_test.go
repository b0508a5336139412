package security

import (
	"errors"
	"testing"
	"time"
)

func newTestJWTManager() *JWTManager {
	return NewJWTManager("jwt-test-secret-0123456789abcdef", "hrd-backend", "hrd-backend-api", time.Hour)
}

func TestJWTManagerIssueAndValidate(t *testing.T) {
	m := newTestJWTManager()
	token, err := m.Issue("user-123", "ADMIN")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != "ADMIN" {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
}

func TestJWTManagerRejectsWrongSecret(t *testing.T) {
	token, err := newTestJWTManager().Issue("user-123", "MEMBER")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	other := NewJWTManager("another-secret-0123456789abcdef", "hrd-backend", "hrd-backend-api", time.Hour)
	if _, err := other.Validate(token); !errors.Is(err, ErrSessionTokenInvalid) {
		t.Fatalf("expected ErrSessionTokenInvalid, got %v", err)
	}
}

func TestJWTManagerRejectsExpired(t *testing.T) {
	m := newTestJWTManager()
	base := time.Now()
	m.now = func() time.Time { return base }
	token, err := m.Issue("user-123", "MEMBER")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	m.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := m.Validate(token); !errors.Is(err, ErrSessionTokenExpired) {
		t.Fatalf("expected ErrSessionTokenExpired, got %v", err)
	}
}

func TestJWTManagerRejectsGarbage(t *testing.T) {
	m := newTestJWTManager()
	if _, err := m.Validate("not.a.jwt"); !errors.Is(err, ErrSessionTokenInvalid) {
		t.Fatalf("expected ErrSessionTokenInvalid, got %v", err)
	}
}
