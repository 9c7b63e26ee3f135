// Package gateway implements the charge-or-reject decision in front of every
// metered operation. The charge always happens before the downstream call; a
// downstream failure after a successful charge is not refunded. That gap is
// deliberate and pinned by tests, so a future compensating-transaction design
// can be added without reinterpreting current behavior.
package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sitirukayah12-del/sora2-demo/pkg/ledger"
	"github.com/sitirukayah12-del/sora2-demo/pkg/logging"
	"github.com/sitirukayah12-del/sora2-demo/pkg/models"
)

// PriceSource resolves the current credit cost of a metered operation. The
// gateway treats it as a read-only input per call; prices may change between
// calls under admin control.
type PriceSource interface {
	Price(ctx context.Context, operation string) (float64, error)
}

// Authorization proves that a charge committed and the caller may proceed
// with the operation.
type Authorization struct {
	ID        string  `json:"id"`
	Operation string  `json:"operation"`
	Cost      float64 `json:"cost"`
	Balance   float64 `json:"balance"`
}

// Gateway wraps metered operations with an atomic pre-charge.
type Gateway struct {
	ledger *ledger.Ledger
	prices PriceSource
	logger logging.Logger
}

// New creates a metered gateway.
func New(l *ledger.Ledger, prices PriceSource, logger logging.Logger) *Gateway {
	return &Gateway{ledger: l, prices: prices, logger: logger}
}

// Charge debits the operation's price from the account before the operation
// runs. On an insufficient balance the ledger stays untouched and the caller
// must not invoke the operation.
func (g *Gateway) Charge(ctx context.Context, account models.Account, operation string) (Authorization, error) {
	cost, err := g.prices.Price(ctx, operation)
	if err != nil {
		return Authorization{}, fmt.Errorf("failed to price %s: %w", operation, err)
	}

	balance, err := g.ledger.Debit(ctx, account.ID, cost, operation)
	if err != nil {
		return Authorization{}, err
	}

	authz := Authorization{
		ID:        uuid.New().String(),
		Operation: operation,
		Cost:      cost,
		Balance:   balance,
	}

	g.logger.WithFields(logging.Fields{
		"account_id": account.ID,
		"operation":  operation,
		"cost":       cost,
		"balance":    balance,
	}).Info("Metered operation charged")

	return authz, nil
}
