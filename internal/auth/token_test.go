package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	mgr := NewTokenManager("test-secret", time.Hour)

	token, err := mgr.Issue(42)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	userID, err := mgr.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user id 42, got %d", userID)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Issue(7)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := NewTokenManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("expected verification failure for token signed with another secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	mgr := &TokenManager{secret: []byte("test-secret"), ttl: -time.Minute}

	token, err := mgr.Issue(7)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := mgr.Verify(token); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	mgr := NewTokenManager("test-secret", time.Hour)
	if _, err := mgr.Verify("not-a-token"); err == nil {
		t.Fatal("expected verification failure for malformed token")
	}
}
