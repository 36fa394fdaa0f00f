package auth

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

const testIssuer = "https://api.shareme.test"

func testTokenService(t *testing.T, opts ...TokenOption) *TokenService {
	t.Helper()
	ts, err := NewTokenService([]byte("test-signing-secret"), opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	ts := testTokenService(t)

	token, expiresAt, err := ts.IssueAccessToken("alice", testIssuer, []string{"ROLE_USER", "ROLE_ADMIN", "ROLE_USER"})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	claims, err := ts.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Issuer != testIssuer {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
	if !slices.Contains(claims.Roles, "ROLE_USER") || !slices.Contains(claims.Roles, "ROLE_ADMIN") {
		t.Fatalf("roles were not preserved: %v", claims.Roles)
	}
	if len(claims.Roles) != 2 {
		t.Fatalf("roles were not deduplicated: %v", claims.Roles)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	now := time.Now().UTC()
	current := now
	ts := testTokenService(t, WithClock(func() time.Time { return current }))

	token, _, err := ts.IssueAccessToken("alice", testIssuer, []string{"ROLE_USER"})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	// One second before expiry the token still verifies.
	current = now.Add(defaultAccessTTL - time.Second)
	if _, err := ts.VerifyAccess(token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	// At and after expiry verification fails deterministically.
	current = now.Add(defaultAccessTTL + time.Second)
	if _, err := ts.VerifyAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	ts := testTokenService(t)

	token, _, err := ts.IssueAccessToken("alice", testIssuer, []string{"ROLE_USER"})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	// Flip one byte of the signature segment.
	dot := strings.LastIndexByte(token, '.')
	sig := []byte(token[dot+1:])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := token[:dot+1] + string(sig)

	if _, err := ts.Verify(tampered); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	ts := testTokenService(t)
	other, err := NewTokenService([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _, err := other.IssueAccessToken("alice", testIssuer, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := ts.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	ts := testTokenService(t)

	for _, raw := range []string{"", "not-a-jwt", "a.b", "a.b.c"} {
		if _, err := ts.Verify(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("Verify(%q): expected ErrTokenMalformed, got %v", raw, err)
		}
	}
}

func TestRefreshTokenNeverAuthorizesRequests(t *testing.T) {
	ts := testTokenService(t)

	refresh, _, err := ts.IssueRefreshToken("alice", testIssuer)
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	// Structurally valid, but not an access token.
	if _, err := ts.VerifyAccess(refresh); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}

	claims, err := ts.VerifyRefresh(refresh)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if len(claims.Roles) != 0 {
		t.Fatalf("refresh token must not carry roles: %v", claims.Roles)
	}
}

func TestAccessTokenRejectedAsRefresh(t *testing.T) {
	ts := testTokenService(t)

	access, _, err := ts.IssueAccessToken("alice", testIssuer, []string{"ROLE_USER"})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := ts.VerifyRefresh(access); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}
