package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/sitirukayah12-del/sora2-demo/pkg/billing"
	"github.com/sitirukayah12-del/sora2-demo/pkg/logging"
	"github.com/sitirukayah12-del/sora2-demo/pkg/models"
)

func newTestLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return New(db, logging.NewLogger()), mock, func() { db.Close() }
}

func accountRow(id, username string, balance float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "username", "password_hash", "email", "balance", "is_active", "created_at", "updated_at",
	}).AddRow(id, username, "$2a$04$hash", nil, balance, true, now, now)
}

func TestCreateAccountStartsWithSignupBonus(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs(sqlmock.AnyArg(), "alice", "$2a$04$hash", nil, billing.SignupBonus).
		WillReturnRows(accountRow("acct-1", "alice", billing.SignupBonus))

	account, err := l.CreateAccount(context.Background(), "alice", "$2a$04$hash", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if account.Balance != billing.SignupBonus {
		t.Fatalf("expected signup bonus balance %.1f, got %.1f", billing.SignupBonus, account.Balance)
	}

	// The bonus is an initial field value. Creation must not write any
	// transactions row, which ExpectationsWereMet verifies.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAccountDuplicateUsername(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs(sqlmock.AnyArg(), "alice", "hash", nil, billing.SignupBonus).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "accounts_username_key"})

	_, err := l.CreateAccount(context.Background(), "alice", "hash", nil)
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	email := "alice@example.com"
	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs(sqlmock.AnyArg(), "alice2", "hash", &email, billing.SignupBonus).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "accounts_email_idx"})

	_, err := l.CreateAccount(context.Background(), "alice2", "hash", &email)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestCreditAppendsLedgerEntryAtomically(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM accounts").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(10.0))
	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(110.0, "acct-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(sqlmock.AnyArg(), "acct-1", 1.0, 100.0, models.TransactionRecharge, "Recharge 1.00 USD").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	balance, err := l.Credit(context.Background(), "acct-1", 1.0, 100.0, models.TransactionRecharge, "Recharge 1.00 USD")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if balance != 110.0 {
		t.Fatalf("expected balance 110, got %.1f", balance)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreditUnknownAccount(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM accounts").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectRollback()

	_, err := l.Credit(context.Background(), "ghost", 1.0, 100.0, models.TransactionRecharge, "recharge")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDebitSubtractsAndRecordsUsage(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM accounts").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(110.0))
	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(60.0, "acct-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(sqlmock.AnyArg(), "acct-1", -50.0, models.TransactionUsage, "generate-video").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	balance, err := l.Debit(context.Background(), "acct-1", 50.0, "generate-video")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if balance != 60.0 {
		t.Fatalf("expected balance 60, got %.1f", balance)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDebitInsufficientBalanceLeavesBooksUntouched(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM accounts").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(60.0))
	mock.ExpectRollback()

	balance, err := l.Debit(context.Background(), "acct-1", 100.0, "generate-video")
	if !IsInsufficientBalance(err) {
		t.Fatalf("expected insufficient balance error, got %v", err)
	}

	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %T", err)
	}
	if insufficient.Required != 100.0 || insufficient.Available != 60.0 {
		t.Fatalf("expected required 100 / available 60, got %.1f / %.1f", insufficient.Required, insufficient.Available)
	}
	if balance != 60.0 {
		t.Fatalf("expected unchanged balance 60, got %.1f", balance)
	}

	// No UPDATE, no INSERT: the rejection happens before any mutation.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDebitExactBalanceSucceeds(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM accounts").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(50.0))
	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(0.0, "acct-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(sqlmock.AnyArg(), "acct-1", -50.0, models.TransactionUsage, "generate-video").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	balance, err := l.Debit(context.Background(), "acct-1", 50.0, "generate-video")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if balance != 0.0 {
		t.Fatalf("expected balance 0, got %.1f", balance)
	}
}

func TestOverrideBalanceWritesNoLedgerEntry(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(42.0, "acct-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := l.OverrideBalance(context.Background(), "acct-1", 42.0); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// The override is the administrative bypass: a single UPDATE and nothing
	// else. ExpectationsWereMet verifies no transactions insert happened.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOverrideBalanceUnknownAccount(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(42.0, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := l.OverrideBalance(context.Background(), "ghost", 42.0); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestFindAccountNotFound(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, username, password_hash").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "password_hash", "email", "balance", "is_active", "created_at", "updated_at",
		}))

	_, err := l.FindAccount(context.Background(), "ghost")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestTransactionsNewestFirst(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "account_id", "amount", "credits", "kind", "description", "created_at"}).
		AddRow("tx-2", "acct-1", 0.0, -50.0, models.TransactionUsage, "generate-video", now).
		AddRow("tx-1", "acct-1", 1.0, 100.0, models.TransactionRecharge, "Recharge 1.00 USD", now.Add(-time.Minute))

	mock.ExpectQuery("SELECT id, account_id, amount, credits, kind, description, created_at").
		WithArgs("acct-1").
		WillReturnRows(rows)

	entries, err := l.Transactions(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "tx-2" || entries[1].ID != "tx-1" {
		t.Fatalf("expected newest-first order, got %s then %s", entries[0].ID, entries[1].ID)
	}
	if entries[0].Credits != -50.0 {
		t.Fatalf("expected usage entry with credits -50, got %.1f", entries[0].Credits)
	}
}

func TestReconcileMatchesAfterLedgerMutations(t *testing.T) {
	l, mock, cleanup := newTestLedger(t)
	defer cleanup()

	mock.ExpectQuery("SELECT a.balance").
		WithArgs("acct-1", billing.SignupBonus).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "derived"}).AddRow(60.0, 60.0))

	stored, derived, err := l.Reconcile(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stored != derived {
		t.Fatalf("expected reconciled books, got stored %.1f derived %.1f", stored, derived)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) {
		t.Fatal("nil error must not be retryable")
	}
	if Retryable(errors.New("boom")) {
		t.Fatal("generic error must not be retryable")
	}
	if !Retryable(&pq.Error{Code: "08006"}) {
		t.Fatal("connection failure must be retryable")
	}
	if !Retryable(&pq.Error{Code: "57P01"}) {
		t.Fatal("admin shutdown must be retryable")
	}
	if Retryable(&pq.Error{Code: "23505"}) {
		t.Fatal("constraint violation must not be retryable")
	}
}
