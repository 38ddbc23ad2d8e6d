package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestGate(t *testing.T, delay time.Duration) *DemoGate {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return NewDemoGate("user@lux.com", "password123", delay, issuer, zaptest.NewLogger(t))
}

func TestDemoGateAcceptsDemoCredentials(t *testing.T) {
	gate := newTestGate(t, 20*time.Millisecond)

	start := time.Now()
	token, err := gate.Login(context.Background(), "user@lux.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("expected artificial delay, took %s", elapsed)
	}

	claims, err := gate.Validate(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != "user@lux.com" || claims.Role != "user" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestDemoGateRejectsWrongCredentials(t *testing.T) {
	gate := newTestGate(t, 0)

	for _, creds := range [][2]string{
		{"user@lux.com", "wrong"},
		{"admin@lux.com", "password123"},
		{"", ""},
	} {
		if _, err := gate.Login(context.Background(), creds[0], creds[1]); !errors.Is(err, ErrAuthenticationFailed) {
			t.Fatalf("expected authentication failure for %v, got %v", creds, err)
		}
	}
}

func TestDemoGateHonoursCancellation(t *testing.T) {
	gate := newTestGate(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gate.Login(ctx, "user@lux.com", "password123"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	other, _ := NewTokenIssuer("other-secret", time.Hour)
	token, err := other.GenerateUserToken("user@lux.com")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	issuer, _ := NewTokenIssuer("test-secret", time.Hour)
	if _, err := issuer.ValidateToken(token); err == nil {
		t.Fatalf("expected foreign token to be rejected")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	issuer, _ := NewTokenIssuer("test-secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.GenerateUserToken("user@lux.com")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := issuer.ValidateToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Fatalf("expected missing secret to fail")
	}
}
