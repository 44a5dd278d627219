package negotiation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestSessionRepository_Integration connects to a real PostgreSQL via
// DATABASE_URL and verifies get-or-create semantics plus the optimistic
// version check.
func TestSessionRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	var exists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'negotiation_sessions')`,
	).Scan(&exists); err != nil || !exists {
		t.Skip("negotiation_sessions table missing; apply db/schema.sql first")
	}

	repo := NewSessionRepository(pool)
	callID := fmt.Sprintf("call-int-%d", time.Now().UnixNano())
	loadID := fmt.Sprintf("LINT%d", time.Now().UnixNano()%1000000)

	if _, err := pool.Exec(ctx, `
		INSERT INTO loads (id, origin_city, origin_state, dest_city, dest_state, equipment, posted_rate, miles)
		VALUES ($1, 'Dallas', 'TX', 'Atlanta', 'GA', 'dry_van', 2100, 780)`, loadID); err != nil {
		t.Fatalf("seed load: %v", err)
	}

	sess, err := repo.GetOrCreate(ctx, callID, loadID, 2100, 1890)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if sess.Status != StatusOpen || sess.Version != 1 {
		t.Fatalf("unexpected fresh session: %+v", sess)
	}

	// Same key returns the same session, never a second row.
	again, err := repo.GetOrCreate(ctx, callID, loadID, 2100, 1890)
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if again.ID != sess.ID {
		t.Fatalf("expected same session, got %s and %s", sess.ID, again.ID)
	}

	// Two writers holding the same version: the second update loses.
	sess.Round = 1
	sess.CarrierOffers = append(sess.CarrierOffers, 1700)
	sess.BrokerCounters = append(sess.BrokerCounters, 1900)

	updated, err := repo.Update(ctx, sess)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if updated.Version != sess.Version+1 {
		t.Fatalf("expected version bump to %d, got %d", sess.Version+1, updated.Version)
	}

	if _, err := repo.Update(ctx, sess); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for stale writer, got %v", err)
	}
}
