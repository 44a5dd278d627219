// Package infra provisions the Postgres backing store for cross-package
// integration tests.
package infra

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"freightline/db"
)

// Harness owns a disposable Postgres instance with the schema applied. When
// FREIGHT_TEST_PG_DSN is set, an existing database is reused instead of
// starting a container.
type Harness struct {
	Pool      *pgxpool.Pool
	DSN       string
	container *postgres.PostgresContainer
}

// Start provisions Postgres and applies the schema.
func Start(ctx context.Context) (*Harness, error) {
	h := &Harness{}

	if dsn := os.Getenv("FREIGHT_TEST_PG_DSN"); dsn != "" {
		h.DSN = dsn
	} else {
		pgC, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("freightline_test"),
			postgres.WithUsername("testuser"),
			postgres.WithPassword("testpass"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			return nil, fmt.Errorf("infra: start postgres: %w", err)
		}
		h.container = pgC

		dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = pgC.Terminate(ctx)
			return nil, fmt.Errorf("infra: connection string: %w", err)
		}
		h.DSN = dsn
	}

	pool, err := db.NewPool(ctx, h.DSN)
	if err != nil {
		_ = h.Close(ctx)
		return nil, fmt.Errorf("infra: pool: %w", err)
	}
	h.Pool = pool

	if err := db.Migrate(ctx, pool); err != nil {
		_ = h.Close(ctx)
		return nil, fmt.Errorf("infra: migrate: %w", err)
	}

	return h, nil
}

// Reset empties all domain tables between test cases.
func (h *Harness) Reset(ctx context.Context) error {
	_, err := h.Pool.Exec(ctx,
		`TRUNCATE call_outcomes, negotiation_sessions, loads, operators`)
	if err != nil {
		return fmt.Errorf("infra: reset: %w", err)
	}
	return nil
}

// Close releases the pool and terminates the container if one was started.
func (h *Harness) Close(ctx context.Context) error {
	if h.Pool != nil {
		h.Pool.Close()
	}
	if h.container != nil {
		return h.container.Terminate(ctx)
	}
	return nil
}
