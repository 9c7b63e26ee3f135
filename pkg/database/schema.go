package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/sitirukayah12-del/sora2-demo/pkg/logging"
)

//go:embed sql/*.sql
var schemaFS embed.FS

// EnsureSchema applies the embedded schema. All statements are idempotent,
// so running it on every startup is safe.
func EnsureSchema(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	script, err := schemaFS.ReadFile("sql/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("Database schema ensured")
	return nil
}
