// Package ledger owns account balances and the append-only transaction log.
// Credit and Debit are the only two mutation paths that keep the books
// consistent; OverrideBalance is a privileged administrative bypass that
// deliberately does not write a transaction record.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sitirukayah12-del/sora2-demo/pkg/billing"
	"github.com/sitirukayah12-del/sora2-demo/pkg/logging"
	"github.com/sitirukayah12-del/sora2-demo/pkg/models"
)

// Ledger performs all account and transaction mutations. The read-check-write
// sequence inside Debit is serialized per account with a row lock, so
// concurrent debits can never both pass the balance check.
type Ledger struct {
	db     *sql.DB
	logger logging.Logger
}

// New creates a Ledger backed by the given database.
func New(db *sql.DB, logger logging.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

const accountColumns = `id, username, password_hash, email, balance, is_active, created_at, updated_at`

func scanAccount(row *sql.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Email, &a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to scan account: %w", err)
	}
	return a, nil
}

// CreateAccount registers a new account with the signup bonus as its initial
// balance. The bonus is a starting field value: no ledger entry is written
// for it, so reconciliation starts from the bonus, not from zero.
func (l *Ledger) CreateAccount(ctx context.Context, username, passwordHash string, email *string) (models.Account, error) {
	id := uuid.New().String()
	row := l.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, username, password_hash, email, balance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns+`
	`, id, username, passwordHash, email, billing.SignupBonus)

	account, err := scanAccount(row)
	if err != nil {
		if mapped := uniqueViolation(err); mapped != nil {
			return models.Account{}, mapped
		}
		return models.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"account_id": account.ID,
		"username":   account.Username,
		"balance":    account.Balance,
	}).Info("Account created")

	return account, nil
}

// FindAccount looks up an account by username.
func (l *Ledger) FindAccount(ctx context.Context, username string) (models.Account, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE username = $1
	`, username)
	return scanAccount(row)
}

// ListAccounts returns every account, for the admin listing endpoint.
func (l *Ledger) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Email, &a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Transactions returns the ledger entries for an account, newest first.
func (l *Ledger) Transactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, account_id, amount, credits, kind, description, created_at
		FROM transactions WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var entries []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Credits, &t.Kind, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entries = append(entries, t)
	}
	return entries, rows.Err()
}

// Credit adds credits to an account and appends one ledger entry, as a single
// atomic unit. amount is the external monetary amount behind the mint, zero
// for non-monetary credits.
func (l *Ledger) Credit(ctx context.Context, accountID string, amount, credits float64, kind, description string) (float64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is best-effort

	var balance float64
	err = tx.QueryRowContext(ctx, `
		SELECT balance FROM accounts WHERE id = $1 FOR UPDATE
	`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock account: %w", err)
	}

	newBalance := balance + credits
	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2
	`, newBalance, accountID); err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, amount, credits, kind, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New().String(), accountID, amount, credits, kind, description); err != nil {
		return 0, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit credit: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"account_id": accountID,
		"credits":    credits,
		"kind":       kind,
		"balance":    newBalance,
	}).Info("Ledger credit applied")

	return newBalance, nil
}

// Debit atomically checks the balance and subtracts cost, appending a usage
// entry with credits = -cost. The row lock holds the check and the write
// together; an insufficient balance aborts before any mutation.
func (l *Ledger) Debit(ctx context.Context, accountID string, cost float64, description string) (float64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is best-effort

	var balance float64
	err = tx.QueryRowContext(ctx, `
		SELECT balance FROM accounts WHERE id = $1 FOR UPDATE
	`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock account: %w", err)
	}

	if balance < cost {
		return balance, &InsufficientBalanceError{Required: cost, Available: balance}
	}

	newBalance := balance - cost
	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2
	`, newBalance, accountID); err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, amount, credits, kind, description)
		VALUES ($1, $2, 0, $3, $4, $5)
	`, uuid.New().String(), accountID, -cost, models.TransactionUsage, description); err != nil {
		return 0, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit debit: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"account_id": accountID,
		"cost":       cost,
		"balance":    newBalance,
	}).Info("Ledger debit applied")

	return newBalance, nil
}

// OverrideBalance sets an absolute balance without writing a ledger entry.
// This is the administrative bypass: it is the only mutation path allowed to
// break balance/ledger reconciliation.
func (l *Ledger) OverrideBalance(ctx context.Context, accountID string, balance float64) error {
	result, err := l.db.ExecContext(ctx, `
		UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2
	`, balance, accountID)
	if err != nil {
		return fmt.Errorf("failed to override balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read override result: %w", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}

	l.logger.WithFields(logging.Fields{
		"account_id": accountID,
		"balance":    balance,
	}).Warn("Administrative balance override applied")

	return nil
}

// Reconcile recomputes an account balance from the signup bonus plus the sum
// of its ledger entries. It holds at any quiescent point unless an
// administrative override has been applied.
func (l *Ledger) Reconcile(ctx context.Context, accountID string) (stored, derived float64, err error) {
	err = l.db.QueryRowContext(ctx, `
		SELECT a.balance, $2 + COALESCE(SUM(t.credits), 0)
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		WHERE a.id = $1
		GROUP BY a.balance
	`, accountID, billing.SignupBonus).Scan(&stored, &derived)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to reconcile account: %w", err)
	}
	return stored, derived, nil
}
