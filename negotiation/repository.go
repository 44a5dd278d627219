package negotiation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, call_id, load_id, round, carrier_offers, broker_counters,
	target_rate, floor_rate, status::text, final_rate, version, created_at, updated_at`

// PGSessionRepository persists sessions in Postgres. Updates use an optimistic
// version check so duplicate webhook deliveries can never both advance the
// same round.
type PGSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository wires a pgxpool-backed session repository.
func NewSessionRepository(pool *pgxpool.Pool) *PGSessionRepository {
	return &PGSessionRepository{pool: pool}
}

// GetOrCreate returns the session for (callID, loadID), creating an Open one
// with the given rates on first use. A concurrent first round resolves to the
// single row the unique key admits.
func (r *PGSessionRepository) GetOrCreate(ctx context.Context, callID, loadID string, targetRate, floorRate float64) (Session, error) {
	if callID == "" || loadID == "" {
		return Session{}, fmt.Errorf("negotiation: call id and load id required")
	}

	insertSQL := `
		INSERT INTO negotiation_sessions (call_id, load_id, target_rate, floor_rate)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (call_id, load_id) DO NOTHING
		RETURNING ` + sessionColumns

	sess, err := scanSession(r.pool.QueryRow(ctx, insertSQL, callID, loadID, targetRate, floorRate))
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, pgx.ErrNoRows):
		return r.Get(ctx, callID, loadID)
	default:
		return Session{}, fmt.Errorf("negotiation: create session: %w", err)
	}
}

// Get fetches the session for (callID, loadID).
func (r *PGSessionRepository) Get(ctx context.Context, callID, loadID string) (Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM negotiation_sessions WHERE call_id = $1 AND load_id = $2`

	sess, err := scanSession(r.pool.QueryRow(ctx, query, callID, loadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("negotiation: get session: %w", err)
	}
	return sess, nil
}

// Update persists the session if its stored version still matches. A stale
// version returns ErrVersionConflict so the caller can reload and retry.
func (r *PGSessionRepository) Update(ctx context.Context, s Session) (Session, error) {
	updateSQL := `
		UPDATE negotiation_sessions
		SET round = $3,
			carrier_offers = $4,
			broker_counters = $5,
			status = $6::session_status,
			final_rate = $7,
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING ` + sessionColumns

	updated, err := scanSession(r.pool.QueryRow(ctx, updateSQL,
		s.ID,
		s.Version,
		s.Round,
		s.CarrierOffers,
		s.BrokerCounters,
		s.Status,
		s.FinalRate,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Session{}, fmt.Errorf("negotiation: update session: %w", err)
	}

	// Distinguish a lost race from a missing row.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM negotiation_sessions WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
		return Session{}, fmt.Errorf("negotiation: verify session: %w", err)
	}
	if exists {
		return Session{}, ErrVersionConflict
	}
	return Session{}, ErrNotFound
}

// ExpireStale settles Open sessions idle since before the cutoff and returns
// them for outcome recording.
func (r *PGSessionRepository) ExpireStale(ctx context.Context, cutoff time.Time) ([]Session, error) {
	query := `
		UPDATE negotiation_sessions
		SET status = 'expired', version = version + 1, updated_at = now()
		WHERE status = 'open' AND updated_at < $1
		RETURNING ` + sessionColumns

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("negotiation: expire stale: %w", err)
	}
	defer rows.Close()

	expired := make([]Session, 0, 4)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("negotiation: scan expired: %w", err)
		}
		expired = append(expired, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("negotiation: iterate expired: %w", err)
	}
	return expired, nil
}

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID,
		&s.CallID,
		&s.LoadID,
		&s.Round,
		&s.CarrierOffers,
		&s.BrokerCounters,
		&s.TargetRate,
		&s.FloorRate,
		&s.Status,
		&s.FinalRate,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return Session{}, err
	}
	return s, nil
}
