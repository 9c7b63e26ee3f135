package ledger

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrAccountNotFound is returned when no account matches the identity.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// InsufficientBalanceError rejects a debit that would drive the balance
// negative. It carries the amounts so the client can prompt a recharge.
type InsufficientBalanceError struct {
	Required  float64
	Available float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %.2f, available %.2f", e.Required, e.Available)
}

// IsInsufficientBalance reports whether err is an InsufficientBalanceError.
func IsInsufficientBalance(err error) bool {
	var ib *InsufficientBalanceError
	return errors.As(err, &ib)
}

// Retryable reports whether a storage error is worth retrying. Constraint
// violations are fatal; connection-level failures are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 = connection exception, 57P01 = admin shutdown
		return pqErr.Code.Class() == "08" || pqErr.Code == "57P01"
	}
	return false
}

// uniqueViolation maps a postgres unique-constraint error to the matching
// sentinel, or returns nil when err is something else.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch pqErr.Constraint {
	case "accounts_username_key":
		return ErrDuplicateUsername
	case "accounts_email_idx":
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}
