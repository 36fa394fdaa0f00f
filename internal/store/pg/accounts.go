package pg

import (
	"context"
	"database/sql"
	"errors"

	"shareme.org/internal/auth"
)

var _ auth.CredentialStore = (*Store)(nil)

// FindByUsername loads the credential record and its role names. Role
// membership is read on every call so a role change takes effect on the
// next login or refresh.
func (s *Store) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	var account auth.Account
	err := s.db.QueryRowContext(ctx, `
		select username, password_hash, enabled
		from accounts
		where username = $1
	`, username).Scan(&account.Username, &account.PasswordHash, &account.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	roles, err := s.accountRoles(ctx, username)
	if err != nil {
		return nil, err
	}
	account.Roles = roles
	return &account, nil
}

func (s *Store) accountRoles(ctx context.Context, username string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select r.name
		from account_roles ar
		join roles r on r.id = ar.role_id
		where ar.username = $1
		order by r.name
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

// CreateAccount inserts the credential record and grants the given roles.
// The roles must already exist in the roles table.
func (s *Store) CreateAccount(ctx context.Context, username, email, passwordHash string, roles []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		insert into accounts (username, email, password_hash, enabled, created_at)
		values ($1, $2, $3, false, now())
	`, username, email, passwordHash)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrUserExists
		}
		return err
	}

	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, `
			insert into account_roles (username, role_id)
			select $1, id from roles where name = $2
		`, username, role); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// EnableAccount flips the enabled flag after email confirmation.
func (s *Store) EnableAccount(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `update accounts set enabled = true where username = $1`, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *Store) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `update accounts set password_hash = $2 where username = $1`, username, passwordHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// SaveRole inserts a role name if it is not present yet.
func (s *Store) SaveRole(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `
		insert into roles (name)
		values ($1)
		on conflict (name) do nothing
	`, name)
	return err
}

// AddRoleToAccount grants an existing role to an account.
func (s *Store) AddRoleToAccount(ctx context.Context, username, role string) error {
	res, err := s.db.ExecContext(ctx, `
		insert into account_roles (username, role_id)
		select $1, id from roles where name = $2
		on conflict do nothing
	`, username, role)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return auth.ErrUserNotFound
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the role does not exist or the grant was already present;
		// probe the role so the caller can tell the difference.
		var id int64
		err := s.db.QueryRowContext(ctx, `select id from roles where name = $1`, role).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return auth.ErrUserNotFound
		}
		return err
	}
	return nil
}

// ListAccounts returns every account ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context) ([]auth.AccountSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		select username, email, enabled, created_at
		from accounts
		order by created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.AccountSummary
	for rows.Next() {
		var a auth.AccountSummary
		if err := rows.Scan(&a.Username, &a.Email, &a.Enabled, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
