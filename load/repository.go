package load

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals the requested load does not exist.
	ErrNotFound = errors.New("load: not found")
	// ErrDuplicateID signals the load identifier is already posted.
	ErrDuplicateID = errors.New("load: duplicate id")
	// ErrAlreadyAssigned signals the load was booked by another call.
	ErrAlreadyAssigned = errors.New("load: already assigned")
	// ErrInvalidEquipment signals an equipment type the board does not post.
	ErrInvalidEquipment = errors.New("load: invalid equipment type")
)

const loadColumns = `id, origin_city, origin_state, dest_city, dest_state, equipment::text,
	posted_rate, miles, weight_lbs, commodity, pickup_at, delivery_at, notes,
	assigned, assigned_rate, assigned_at, created_at`

// Repository provides access to the load inventory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed inventory repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create posts a new load. A blank ID is assigned a generated board identifier.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Load, error) {
	if !params.Equipment.Valid() {
		return Load{}, ErrInvalidEquipment
	}
	if params.PostedRate <= 0 {
		return Load{}, fmt.Errorf("load: posted rate must be positive")
	}
	if params.Miles < 0 {
		return Load{}, fmt.Errorf("load: miles must not be negative")
	}
	if params.ID == "" {
		params.ID = newBoardID()
	}

	const query = `
		INSERT INTO loads (id, origin_city, origin_state, dest_city, dest_state, equipment,
			posted_rate, miles, weight_lbs, commodity, pickup_at, delivery_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6::equipment_type, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + loadColumns

	ld, err := scanLoad(r.pool.QueryRow(ctx, query,
		params.ID,
		params.OriginCity,
		strings.ToUpper(params.OriginState),
		params.DestCity,
		strings.ToUpper(params.DestState),
		params.Equipment,
		params.PostedRate,
		params.Miles,
		params.WeightLbs,
		params.Commodity,
		params.PickupAt,
		params.DeliveryAt,
		params.Notes,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Load{}, ErrDuplicateID
		}
		return Load{}, fmt.Errorf("load: create: %w", err)
	}
	return ld, nil
}

// GetByID fetches a load by its board identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (Load, error) {
	query := `SELECT ` + loadColumns + ` FROM loads WHERE id = $1`

	ld, err := scanLoad(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Load{}, ErrNotFound
		}
		return Load{}, fmt.Errorf("load: get by id: %w", err)
	}
	return ld, nil
}

// ListAvailable returns unassigned loads for the given equipment type, ordered
// by identifier for stable downstream ranking.
func (r *Repository) ListAvailable(ctx context.Context, equipment Equipment) ([]Load, error) {
	if !equipment.Valid() {
		return nil, ErrInvalidEquipment
	}

	query := `
		SELECT ` + loadColumns + `
		FROM loads
		WHERE equipment = $1::equipment_type AND NOT assigned
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, equipment)
	if err != nil {
		return nil, fmt.Errorf("load: list available: %w", err)
	}
	defer rows.Close()

	loads := make([]Load, 0, 8)
	for rows.Next() {
		ld, err := scanLoad(rows)
		if err != nil {
			return nil, fmt.Errorf("load: scan: %w", err)
		}
		loads = append(loads, ld)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load: iterate: %w", err)
	}
	return loads, nil
}

// MarkAssigned flags the load as booked at the given rate. The WHERE guard
// makes a second booking attempt fail rather than overwrite the first.
func (r *Repository) MarkAssigned(ctx context.Context, id string, rate float64) (Load, error) {
	query := `
		UPDATE loads
		SET assigned = true, assigned_rate = $2, assigned_at = now()
		WHERE id = $1 AND NOT assigned
		RETURNING ` + loadColumns

	ld, err := scanLoad(r.pool.QueryRow(ctx, query, id, rate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return Load{}, ErrAlreadyAssigned
			}
			return Load{}, ErrNotFound
		}
		return Load{}, fmt.Errorf("load: mark assigned: %w", err)
	}
	return ld, nil
}

func scanLoad(row pgx.Row) (Load, error) {
	var ld Load
	err := row.Scan(
		&ld.ID,
		&ld.OriginCity,
		&ld.OriginState,
		&ld.DestCity,
		&ld.DestState,
		&ld.Equipment,
		&ld.PostedRate,
		&ld.Miles,
		&ld.WeightLbs,
		&ld.Commodity,
		&ld.PickupAt,
		&ld.DeliveryAt,
		&ld.Notes,
		&ld.Assigned,
		&ld.AssignedRate,
		&ld.AssignedAt,
		&ld.CreatedAt,
	)
	if err != nil {
		return Load{}, err
	}
	return ld, nil
}

func newBoardID() string {
	return "L" + strings.ToUpper(uuid.NewString()[:6])
}
