package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenManager_AccessTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, err := tm.IssueAccessToken("user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	email, err := tm.VerifyToken(token, PurposeAccess)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}

	if email != "user@example.com" {
		t.Errorf("expected subject user@example.com, got %s", email)
	}
}

func TestTokenManager_EmailTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret")

	for _, purpose := range []string{PurposeVerifyEmail, PurposePasswordReset} {
		token, err := tm.IssueEmailToken("user@example.com", purpose, 20*time.Minute)
		if err != nil {
			t.Fatalf("IssueEmailToken(%s) failed: %v", purpose, err)
		}

		email, err := tm.VerifyToken(token, purpose)
		if err != nil {
			t.Fatalf("VerifyToken(%s) failed: %v", purpose, err)
		}
		if email != "user@example.com" {
			t.Errorf("expected subject user@example.com, got %s", email)
		}
	}
}

func TestTokenManager_IssueEmailToken_RejectsUnknownPurpose(t *testing.T) {
	tm := NewTokenManager("test-secret")

	if _, err := tm.IssueEmailToken("user@example.com", PurposeAccess, time.Hour); err == nil {
		t.Error("expected error issuing email token with access purpose")
	}
	if _, err := tm.IssueEmailToken("user@example.com", "made_up", time.Hour); err == nil {
		t.Error("expected error issuing email token with unknown purpose")
	}
}

func TestTokenManager_WrongPurpose(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, err := tm.IssueEmailToken("user@example.com", PurposeVerifyEmail, time.Hour)
	if err != nil {
		t.Fatalf("IssueEmailToken failed: %v", err)
	}

	// A verification token must not work as an access token.
	if _, err := tm.VerifyToken(token, PurposeAccess); !errors.Is(err, ErrWrongPurpose) {
		t.Errorf("expected ErrWrongPurpose, got %v", err)
	}

	// Nor as a password reset token.
	if _, err := tm.VerifyToken(token, PurposePasswordReset); !errors.Is(err, ErrWrongPurpose) {
		t.Errorf("expected ErrWrongPurpose, got %v", err)
	}
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, err := tm.IssueAccessToken("user@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	if _, err := tm.VerifyToken(token, PurposeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").IssueAccessToken("user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	if _, err := NewTokenManager("secret-b").VerifyToken(token, PurposeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_Tampered(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, err := tm.IssueAccessToken("user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 JWT segments, got %d", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	if _, err := tm.VerifyToken(tampered, PurposeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := NewTokenManager("test-secret")

	for _, input := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := tm.VerifyToken(input, PurposeAccess); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyToken(%q): expected ErrInvalidToken, got %v", input, err)
		}
	}
}
