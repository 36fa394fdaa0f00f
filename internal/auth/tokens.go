package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenTypeAccess marks short-lived tokens that authorize resource requests.
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks long-lived tokens that only mint new access tokens.
	TokenTypeRefresh = "refresh"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 14 * 24 * time.Hour
)

// Claims represents JWT claims used across the service.
type Claims struct {
	Roles     []string `json:"roles,omitempty"`
	TokenType string   `json:"token_type"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claim set carries the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenService signs and verifies HS256 tokens. Verification is pure: it
// needs nothing beyond the shared signing key and a clock.
type TokenService struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption configures TokenService behavior.
type TokenOption func(*TokenService)

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(ts *TokenService) {
		if ttl > 0 {
			ts.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(ts *TokenService) {
		if ttl > 0 {
			ts.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(ts *TokenService) {
		if fn != nil {
			ts.now = fn
		}
	}
}

// NewTokenService constructs a TokenService with optional configuration.
func NewTokenService(signingKey []byte, opts ...TokenOption) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("auth: signing key is required")
	}
	ts := &TokenService{
		signingKey: signingKey,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

// AccessTTL returns the configured access token lifetime.
func (ts *TokenService) AccessTTL() time.Duration { return ts.accessTTL }

// IssueAccessToken signs a short-lived token carrying subject and roles.
func (ts *TokenService) IssueAccessToken(subject, issuerURL string, roles []string) (string, time.Time, error) {
	return ts.issue(subject, issuerURL, normalizeRoles(roles), TokenTypeAccess, ts.accessTTL)
}

// IssueRefreshToken signs a long-lived token carrying the subject only.
func (ts *TokenService) IssueRefreshToken(subject, issuerURL string) (string, time.Time, error) {
	return ts.issue(subject, issuerURL, nil, TokenTypeRefresh, ts.refreshTTL)
}

func (ts *TokenService) issue(subject, issuerURL string, roles []string, tokenType string, ttl time.Duration) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("auth: subject is required")
	}

	now := ts.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Roles:     roles,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerURL,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature and time bounds and returns the embedded claims.
// Failures are reported as exactly one of ErrTokenExpired,
// ErrInvalidSignature or ErrTokenMalformed.
func (ts *TokenService) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidSignature
		}
		return ts.signingKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return ts.now().UTC() }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenMalformed
	}
	claims.Roles = normalizeRoles(claims.Roles)
	return claims, nil
}

// VerifyAccess verifies raw and additionally requires an access token. A
// refresh token is structurally valid JWT but must never authorize a
// resource request, so it is rejected as malformed here.
func (ts *TokenService) VerifyAccess(raw string) (*Claims, error) {
	claims, err := ts.Verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// VerifyRefresh verifies raw and requires a refresh token.
func (ts *TokenService) VerifyRefresh(raw string) (*Claims, error) {
	claims, err := ts.Verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func normalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	var normalized []string
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized
}
