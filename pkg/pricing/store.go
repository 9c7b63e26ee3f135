// Package pricing stores the admin-controlled credit price of each metered
// operation. The gateway reads it fresh on every charge.
package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sitirukayah12-del/sora2-demo/pkg/models"
)

// Metered operation names.
const (
	OpGenerateVideo  = "generate-video"
	OpGenerateImage  = "generate-image"
	OpGenerateMusic  = "generate-music"
	OpGenerateAvatar = "generate-avatar"
)

// ErrUnknownOperation is returned when no price row exists for an operation.
var ErrUnknownOperation = errors.New("unknown metered operation")

// defaultPrices seed the table on first startup.
var defaultPrices = map[string]float64{
	OpGenerateVideo:  50,
	OpGenerateImage:  10,
	OpGenerateMusic:  20,
	OpGenerateAvatar: 30,
}

// Store is the DB-backed pricing table.
type Store struct {
	db *sql.DB
}

// NewStore creates a pricing store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Seed inserts the default price rows, leaving existing ones untouched.
func (s *Store) Seed(ctx context.Context) error {
	for op, credits := range defaultPrices {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO prices (operation, credits)
			VALUES ($1, $2)
			ON CONFLICT (operation) DO NOTHING
		`, op, credits); err != nil {
			return fmt.Errorf("failed to seed price for %s: %w", op, err)
		}
	}
	return nil
}

// Price returns the current credit cost of an operation.
func (s *Store) Price(ctx context.Context, operation string) (float64, error) {
	var credits float64
	err := s.db.QueryRowContext(ctx, `
		SELECT credits FROM prices WHERE operation = $1
	`, operation).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUnknownOperation
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read price: %w", err)
	}
	return credits, nil
}

// SetPrice updates the credit cost of an operation. Admin surface only.
func (s *Store) SetPrice(ctx context.Context, operation string, credits float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE prices SET credits = $1, updated_at = NOW() WHERE operation = $2
	`, credits, operation)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read price update result: %w", err)
	}
	if affected == 0 {
		return ErrUnknownOperation
	}
	return nil
}

// List returns all price rows.
func (s *Store) List(ctx context.Context) ([]models.Price, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT operation, credits, updated_at FROM prices ORDER BY operation
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	defer rows.Close()

	var prices []models.Price
	for rows.Next() {
		var p models.Price
		if err := rows.Scan(&p.Operation, &p.Credits, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
