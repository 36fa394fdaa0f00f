package auth

import (
	"context"
	"time"
)

// Account is the credential-store view of a user: identity, password hash
// and role names. Role membership is read fresh on every login and refresh,
// never cached across requests.
type Account struct {
	Username     string
	PasswordHash string
	Roles        []string
	Enabled      bool
}

// CredentialStore is the external collaborator the authenticator depends on.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
}

// AccountSummary is the administrative listing view of an account.
type AccountSummary struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}
