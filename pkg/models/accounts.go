package models

import "time"

// Transaction kinds recorded in the ledger.
const (
	TransactionRecharge = "recharge"
	TransactionUsage    = "usage"
)

// Account represents a registered account with a spendable credit balance
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never serialize the credential
	Email        *string   `json:"email,omitempty"`
	Balance      float64   `json:"balance"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary returns the externally visible view of an account
func (a Account) Summary() AccountSummary {
	return AccountSummary{
		Username: a.Username,
		Email:    a.Email,
		Balance:  a.Balance,
		IsActive: a.IsActive,
	}
}

// AccountSummary is the account view returned by the API
type AccountSummary struct {
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
	Balance  float64 `json:"balance"`
	IsActive bool    `json:"is_active"`
}

// Transaction is one immutable ledger entry. Entries are append-only: the
// ledger never updates or deletes them once written.
type Transaction struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Amount      float64   `json:"amount"`  // external currency units, zero for pure usage
	Credits     float64   `json:"credits"` // positive for recharge, negative for usage
	Kind        string    `json:"kind"`    // "recharge" or "usage"
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Price is one row of the admin-controlled pricing table
type Price struct {
	Operation string    `json:"operation"`
	Credits   float64   `json:"credits"`
	UpdatedAt time.Time `json:"updated_at"`
}
