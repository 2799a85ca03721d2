package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nekoko-ai/platform/internal/app/domain/account"
	"github.com/nekoko-ai/platform/internal/errors"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func accountRows(id string, balance float64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "balance", "role", "status", "created_at", "updated_at",
	}).AddRow(id, "alice", "", "x", balance, "user", "active", now, now)
}

func TestDebitBalanceAtomicUpdate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE accounts\s+SET balance = balance - \$2`).
		WithArgs("acct-1", 0.5, sqlmock.AnyArg()).
		WillReturnRows(accountRows("acct-1", 9.5))

	acct, err := store.DebitBalance(context.Background(), "acct-1", 0.5)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if acct.Balance != 9.5 {
		t.Fatalf("expected balance 9.5, got %v", acct.Balance)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDebitBalanceInsufficientFunds(t *testing.T) {
	store, mock := newMockStore(t)

	// The guarded UPDATE matches no row, the follow-up read finds the
	// account with a short balance.
	mock.ExpectQuery(`UPDATE accounts\s+SET balance = balance - \$2`).
		WithArgs("acct-1", 2.0, sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
		WithArgs("acct-1").
		WillReturnRows(accountRows("acct-1", 0.4))

	_, err := store.DebitBalance(context.Background(), "acct-1", 2.0)
	if !errors.IsCode(err, errors.CodeInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDebitBalanceUnknownAccount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE accounts\s+SET balance = balance - \$2`).
		WithArgs("ghost", 1.0, sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.DebitBalance(context.Background(), "ghost", 1.0)
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreditBalance(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE accounts\s+SET balance = balance \+ \$2`).
		WithArgs("acct-1", 5.0, sqlmock.AnyArg()).
		WillReturnRows(accountRows("acct-1", 15))

	acct, err := store.CreditBalance(context.Background(), "acct-1", 5)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if acct.Balance != 15 {
		t.Fatalf("expected balance 15, got %v", acct.Balance)
	}
}

func TestCreateAccountUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO accounts`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.CreateAccount(context.Background(), account.Account{
		Username: "alice", PasswordHash: "x", Role: account.RoleUser, Status: account.StatusActive,
	})
	if !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateAccountLeavesBalanceColumnAlone(t *testing.T) {
	store, mock := newMockStore(t)

	// The UPDATE statement must not reference the balance column.
	mock.ExpectQuery(`UPDATE accounts\s+SET username = \$2, email = \$3, password_hash = \$4, role = \$5, status = \$6, updated_at = \$7`).
		WithArgs("acct-1", "alice", "a@example.com", "x", "user", "active", sqlmock.AnyArg()).
		WillReturnRows(accountRows("acct-1", 7))

	acct, err := store.UpdateAccount(context.Background(), account.Account{
		ID: "acct-1", Username: "alice", Email: "a@example.com", PasswordHash: "x",
		Balance: 9999, Role: account.RoleUser, Status: account.StatusActive,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if acct.Balance != 7 {
		t.Fatalf("expected stored balance 7, got %v", acct.Balance)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetSettingsDefaultsWhenUnseeded(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT site_name`).WillReturnError(sql.ErrNoRows)

	cfg, err := store.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if cfg.SiteName == "" || !cfg.AllowRegistration {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestDeleteProviderStillReferenced(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM models WHERE provider_id = \$1`).
		WithArgs("prov-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	err := store.DeleteProvider(context.Background(), "prov-1")
	if !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict while models reference the provider, got %v", err)
	}
}
