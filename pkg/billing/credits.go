package billing

import "github.com/sitirukayah12-del/sora2-demo/pkg/config"

const (
	defaultCurrencyEnv      = "BILLING_CURRENCY"
	defaultCurrencyFallback = "USD"

	// CreditsPerCurrencyUnit is the fixed recharge exchange rate:
	// 1 unit of currency mints 100 credits. Recharge is a pure unit
	// conversion, not a payment gateway integration.
	CreditsPerCurrencyUnit = 100.0

	// SignupBonus is the credit balance granted at account creation. It is
	// an initial field value, not a ledger entry.
	SignupBonus = 10.0
)

// DefaultCurrency returns the ledger currency used when no currency is specified.
func DefaultCurrency() string {
	return config.GetEnv(defaultCurrencyEnv, defaultCurrencyFallback)
}

// CreditsForAmount converts a monetary amount into credits at the fixed rate.
func CreditsForAmount(amount float64) float64 {
	return amount * CreditsPerCurrencyUnit
}
