package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	iss, err := New("test-secret", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	iss.WithClock(func() time.Time { return now })

	tokens, err := iss.Issue("alice", true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !tokens.AccessExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected access exp %v", tokens.AccessExpiresAt)
	}

	claims, err := iss.Verify(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Username != "alice" || !claims.IsAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := iss.Verify(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("refresh token must not pass as access, got %v", err)
	}
	if _, _, err := iss.VerifyRefresh(tokens.AccessToken); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("access token must not pass as refresh, got %v", err)
	}
	if _, exp, err := iss.VerifyRefresh(tokens.RefreshToken); err != nil || !exp.Equal(now.Add(24*time.Hour)) {
		t.Fatalf("verify refresh: exp=%v err=%v", exp, err)
	}
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	iss, _ := New("test-secret", time.Minute, time.Hour)
	iss.WithClock(func() time.Time { return now })

	tokens, err := iss.Issue("alice", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := iss.Verify(context.Background(), tokens.AccessToken); err == nil {
		t.Fatalf("expected expired access token to fail")
	}
	if _, _, err := iss.VerifyRefresh(tokens.RefreshToken); err != nil {
		t.Fatalf("refresh should still be valid: %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	a, _ := New("secret-a", time.Minute, time.Hour)
	b, _ := New("secret-b", time.Minute, time.Hour)

	tokens, err := a.Issue("alice", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Verify(context.Background(), tokens.AccessToken); err == nil {
		t.Fatalf("expected signature failure")
	}
	if _, err := a.Verify(context.Background(), ""); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
}

func TestNew_EmptySecret(t *testing.T) {
	if _, err := New("  ", time.Minute, time.Hour); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}
