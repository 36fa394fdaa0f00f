package pg

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"shareme.org/internal/auth"
)

// mockConverter lets []string pass through as a query argument, matching the
// pgx stdlib driver used in production (sqlmock's default converter rejects
// slices).
type mockConverter struct{}

func (mockConverter) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(mockConverter{}))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestFindByUsername(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select username, password_hash, enabled").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "enabled"}).
			AddRow("alice", "$2a$10$hash", true))
	mock.ExpectQuery("select r.name").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("ROLE_ADMIN").AddRow("ROLE_USER"))

	account, err := store.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if account.Username != "alice" || !account.Enabled {
		t.Fatalf("unexpected account: %+v", account)
	}
	if len(account.Roles) != 2 || account.Roles[0] != "ROLE_ADMIN" || account.Roles[1] != "ROLE_USER" {
		t.Fatalf("unexpected roles: %v", account.Roles)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByUsernameMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select username, password_hash, enabled").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "enabled"}))

	_, err := store.FindByUsername(context.Background(), "ghost")
	if !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestCreateAccount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("insert into accounts").
		WithArgs("bob", "bob@example.com", "$2a$10$hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into account_roles").
		WithArgs("bob", "ROLE_USER").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.CreateAccount(context.Background(), "bob", "bob@example.com", "$2a$10$hash", []string{"ROLE_USER"})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnableAccountMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update accounts set enabled = true").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.EnableAccount(context.Background(), "ghost"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestConsumeTokenExpired(t *testing.T) {
	store, mock := newMockStore(t)

	stale := time.Now().Add(-time.Hour)
	mock.ExpectQuery("delete from one_time_tokens").
		WithArgs("tok", "password_recovery").
		WillReturnRows(sqlmock.NewRows([]string{"username", "expires_at"}).AddRow("alice", stale))

	_, err := store.Tokens().ConsumeToken(context.Background(), "tok", "password_recovery")
	if err == nil || err.Error() != "email: token expired" {
		t.Fatalf("got %v, want token expired", err)
	}
}
