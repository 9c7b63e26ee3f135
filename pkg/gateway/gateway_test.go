package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sitirukayah12-del/sora2-demo/pkg/ledger"
	"github.com/sitirukayah12-del/sora2-demo/pkg/logging"
	"github.com/sitirukayah12-del/sora2-demo/pkg/models"
)

type stubPrices struct {
	prices map[string]float64
}

func (s *stubPrices) Price(ctx context.Context, operation string) (float64, error) {
	cost, ok := s.prices[operation]
	if !ok {
		return 0, errors.New("unknown metered operation")
	}
	return cost, nil
}

func newTestGateway(t *testing.T, prices map[string]float64) (*Gateway, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	logger := logging.NewLogger()
	g := New(ledger.New(db, logger), &stubPrices{prices: prices}, logger)
	return g, mock, func() { db.Close() }
}

func TestChargeDebitsPriceBeforeOperation(t *testing.T) {
	g, mock, cleanup := newTestGateway(t, map[string]float64{"generate-video": 50})
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

	account := models.Account{ID: "acct-1", Username: "alice"}
	authz, err := g.Charge(context.Background(), account, "generate-video")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if authz.Cost != 50 {
		t.Fatalf("expected cost 50, got %.1f", authz.Cost)
	}
	if authz.Balance != 60 {
		t.Fatalf("expected balance 60, got %.1f", authz.Balance)
	}
	if authz.Operation != "generate-video" {
		t.Fatalf("expected operation name on authorization, got %q", authz.Operation)
	}
	if authz.ID == "" {
		t.Fatal("expected a charge id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestChargeRejectsWithoutMutationWhenBroke(t *testing.T) {
	g, mock, cleanup := newTestGateway(t, map[string]float64{"generate-video": 50})
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM accounts").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(20.0))
	mock.ExpectRollback()

	account := models.Account{ID: "acct-1", Username: "alice"}
	_, err := g.Charge(context.Background(), account, "generate-video")

	var insufficient *ledger.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if insufficient.Required != 50 || insufficient.Available != 20 {
		t.Fatalf("expected required 50 / available 20, got %.1f / %.1f", insufficient.Required, insufficient.Available)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestChargeUnknownOperationSkipsLedger(t *testing.T) {
	g, mock, cleanup := newTestGateway(t, map[string]float64{})
	defer cleanup()

	account := models.Account{ID: "acct-1", Username: "alice"}
	if _, err := g.Charge(context.Background(), account, "generate-hologram"); err == nil {
		t.Fatal("expected pricing error")
	}

	// A failed price lookup must never reach the ledger.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected ledger access: %v", err)
	}
}
