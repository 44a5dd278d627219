package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Statements are idempotent so the call
// is safe on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sql := strings.TrimSpace(schemaSQL)
	if sql == "" {
		return fmt.Errorf("db: empty embedded schema")
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("db: acquire conn: %w", err)
	}
	defer conn.Release()

	res := conn.Conn().PgConn().Exec(ctx, sql)
	if _, err := res.ReadAll(); err != nil {
		return fmt.Errorf("db: apply schema: %w", err)
	}

	return nil
}
