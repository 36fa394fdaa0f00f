package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

const defaultStoreTimeout = 5 * time.Second

// Authenticator exchanges credentials for token pairs and refresh tokens for
// fresh access tokens. It keeps no session state: the only shared secret is
// the token signing key.
type Authenticator struct {
	store        CredentialStore
	tokens       *TokenService
	issuer       string
	storeTimeout time.Duration
}

// TokenPair represents access and refresh tokens along with their
// expirations. ExpiresIn is the access token lifetime in seconds, for
// clients that schedule refreshes from a relative duration.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	ExpiresIn        int64     `json:"expiresIn"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// AuthenticatorOption configures Authenticator behavior.
type AuthenticatorOption func(*Authenticator)

// WithStoreTimeout bounds every credential-store lookup. Lookups that exceed
// it surface ErrStorageUnavailable instead of hanging the request.
func WithStoreTimeout(d time.Duration) AuthenticatorOption {
	return func(a *Authenticator) {
		if d > 0 {
			a.storeTimeout = d
		}
	}
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(store CredentialStore, tokens *TokenService, issuer string, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		store:        store,
		tokens:       tokens,
		issuer:       strings.TrimSpace(issuer),
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tokens exposes the underlying token service.
func (a *Authenticator) Tokens() *TokenService { return a.tokens }

// Authenticate verifies username/password against the credential store and
// mints a token pair. No session record is created.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return TokenPair{}, ErrBadCredentials
	}

	account, err := a.lookup(ctx, username)
	if err != nil {
		return TokenPair{}, err
	}
	if !account.Enabled {
		return TokenPair{}, ErrBadCredentials
	}
	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		return TokenPair{}, ErrBadCredentials
	}

	return a.mint(account)
}

// RefreshAccessToken verifies the refresh token, re-resolves the subject's
// current roles from the credential store and mints a new access token. The
// refresh token itself is reused unchanged: issued refresh tokens are not
// persisted and there is no revocation list, so any structurally valid,
// unexpired, correctly signed refresh token is honored.
func (a *Authenticator) RefreshAccessToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := a.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	account, err := a.lookup(ctx, claims.Subject)
	if err != nil {
		return TokenPair{}, err
	}

	access, accessExp, err := a.tokens.IssueAccessToken(account.Username, a.issuer, account.Roles)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refreshToken,
		ExpiresIn:        int64(a.tokens.AccessTTL().Seconds()),
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (a *Authenticator) mint(account *Account) (TokenPair, error) {
	access, accessExp, err := a.tokens.IssueAccessToken(account.Username, a.issuer, account.Roles)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := a.tokens.IssueRefreshToken(account.Username, a.issuer)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresIn:        int64(a.tokens.AccessTTL().Seconds()),
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// lookup runs a credential-store read under the configured timeout. The
// store is never called while any lock is held.
func (a *Authenticator) lookup(ctx context.Context, username string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()

	account, err := a.store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, ErrUserNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return nil, ErrStorageUnavailable
	default:
		return nil, ErrStorageUnavailable
	}
}
