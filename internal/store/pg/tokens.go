package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shareme.org/internal/email"
)

// Tokens implements email.TokenStore.
type Tokens struct {
	db *sql.DB
}

// Tokens returns the one-time token store.
func (s *Store) Tokens() *Tokens { return &Tokens{db: s.db} }

var _ email.TokenStore = (*Tokens)(nil)

func (r *Tokens) CreateToken(ctx context.Context, token, username, purpose string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		insert into one_time_tokens (token, username, purpose, expires_at, created_at)
		values ($1, $2, $3, $4, now())
	`, token, username, purpose, expiresAt)
	return err
}

// ConsumeToken deletes the token row and returns the username it was minted
// for. A token that was already consumed, was minted for a different
// purpose or never existed yields ErrTokenInvalid; a stale one yields
// ErrTokenExpired.
func (r *Tokens) ConsumeToken(ctx context.Context, token, purpose string) (string, error) {
	var (
		username  string
		expiresAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		delete from one_time_tokens
		where token = $1 and purpose = $2
		returning username, expires_at
	`, token, purpose).Scan(&username, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", email.ErrTokenInvalid
	}
	if err != nil {
		return "", err
	}
	if time.Now().After(expiresAt) {
		return "", email.ErrTokenExpired
	}
	return username, nil
}
