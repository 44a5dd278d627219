package outcome

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals no outcome exists for the call.
	ErrNotFound = errors.New("outcome: not found")
	// ErrDuplicateCall signals an outcome was already recorded for the call.
	ErrDuplicateCall = errors.New("outcome: call already recorded")
)

const outcomeColumns = `id, call_id, status::text, load_id, final_rate, rounds_used, confirmation, created_at`

// PGRepository persists call outcomes in Postgres. The unique call_id index
// is the idempotency guard.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed outcome repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert writes a new outcome row. A second insert for the same call returns
// ErrDuplicateCall.
func (r *PGRepository) Insert(ctx context.Context, params InsertParams) (CallOutcome, error) {
	if params.CallID == "" {
		return CallOutcome{}, fmt.Errorf("outcome: call id required")
	}

	insertSQL := `
		INSERT INTO call_outcomes (call_id, status, load_id, final_rate, rounds_used, confirmation)
		VALUES ($1, $2::outcome_status, $3, $4, $5, $6)
		RETURNING ` + outcomeColumns

	rec, err := scanOutcome(r.pool.QueryRow(ctx, insertSQL,
		params.CallID,
		params.Status,
		params.LoadID,
		params.FinalRate,
		params.RoundsUsed,
		params.Confirmation,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return CallOutcome{}, ErrDuplicateCall
		}
		return CallOutcome{}, fmt.Errorf("outcome: insert: %w", err)
	}
	return rec, nil
}

// GetByCallID fetches the recorded outcome for a call.
func (r *PGRepository) GetByCallID(ctx context.Context, callID string) (CallOutcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM call_outcomes WHERE call_id = $1`

	rec, err := scanOutcome(r.pool.QueryRow(ctx, query, callID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CallOutcome{}, ErrNotFound
		}
		return CallOutcome{}, fmt.Errorf("outcome: get by call id: %w", err)
	}
	return rec, nil
}

// Summarize aggregates all recorded outcomes.
func (r *PGRepository) Summarize(ctx context.Context) (Summary, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'booked'),
			COUNT(*) FILTER (WHERE status = 'negotiation_failed'),
			COUNT(*) FILTER (WHERE status = 'no_match'),
			COUNT(*) FILTER (WHERE status = 'verification_failed'),
			COALESCE(AVG(rounds_used) FILTER (WHERE rounds_used > 0), 0),
			COALESCE(SUM(final_rate) FILTER (WHERE status = 'booked'), 0)
		FROM call_outcomes
	`

	var s Summary
	if err := r.pool.QueryRow(ctx, query).Scan(
		&s.TotalCalls,
		&s.Booked,
		&s.NegotiationFailed,
		&s.NoMatch,
		&s.VerificationFailed,
		&s.AverageRounds,
		&s.BookedRevenue,
	); err != nil {
		return Summary{}, fmt.Errorf("outcome: summarize: %w", err)
	}

	if s.TotalCalls > 0 {
		s.BookingRate = float64(s.Booked) / float64(s.TotalCalls) * 100
	}
	return s, nil
}

func scanOutcome(row pgx.Row) (CallOutcome, error) {
	var rec CallOutcome
	err := row.Scan(
		&rec.ID,
		&rec.CallID,
		&rec.Status,
		&rec.LoadID,
		&rec.FinalRate,
		&rec.RoundsUsed,
		&rec.Confirmation,
		&rec.CreatedAt,
	)
	if err != nil {
		return CallOutcome{}, err
	}
	return rec, nil
}
