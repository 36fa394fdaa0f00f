// Package email delivers account mail (registration confirmation, password
// recovery) and defines the one-time tokens those flows ride on.
package email

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Token purposes. A token is only valid for the purpose it was minted for.
const (
	PurposeConfirmRegistration = "confirm_registration"
	PurposePasswordRecovery    = "password_recovery"
)

// TokenTTL is how long a minted token stays valid.
const TokenTTL = 24 * time.Hour

var (
	ErrTokenInvalid = errors.New("email: token invalid")
	ErrTokenExpired = errors.New("email: token expired")
)

// NewToken mints an opaque one-time token value.
func NewToken() string {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	return hex.EncodeToString(buf[:])
}

// TokenStore persists one-time tokens. Consume removes the token so a
// second presentation fails with ErrTokenInvalid.
type TokenStore interface {
	CreateToken(ctx context.Context, token, username, purpose string, expiresAt time.Time) error
	ConsumeToken(ctx context.Context, token, purpose string) (username string, err error)
}

// Sender delivers a single mail message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
