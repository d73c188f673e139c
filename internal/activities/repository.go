package activities

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

const selectActivity = `SELECT a.id, a.name, a.description, a.starts_at, a.ends_at, a.itinerary_id,
	i.day AS itinerary_day, i.description AS itinerary_description
FROM activities a
LEFT JOIN itineraries i ON i.id = a.itinerary_id`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context) ([]Activity, error) {
	var out []Activity
	if err := db.Select(ctx, r.pool, &out, selectActivity+` ORDER BY a.id`); err != nil {
		return nil, fmt.Errorf("activities: list: %w", err)
	}
	return out, nil
}

func (r *Repository) ListByItinerary(ctx context.Context, itineraryID int64) ([]Activity, error) {
	var out []Activity
	err := db.Select(ctx, r.pool, &out, selectActivity+` WHERE a.itinerary_id = $1 ORDER BY a.starts_at NULLS LAST, a.id`, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("activities: list by itinerary: %w", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Activity, error) {
	var a Activity
	if err := db.Get(ctx, r.pool, &a, selectActivity+` WHERE a.id = $1`, id); err != nil {
		if db.IsNotFound(err) {
			return Activity{}, shared.ErrNotFound
		}
		return Activity{}, fmt.Errorf("activities: get: %w", err)
	}
	return a, nil
}

func (r *Repository) ItineraryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM itineraries WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("activities: itinerary exists: %w", err)
	}
	return exists, nil
}

func (r *Repository) Create(ctx context.Context, in Input) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO activities (name, description, starts_at, ends_at, itinerary_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`, in.Name, in.Description, in.StartsAt, in.EndsAt, in.ItineraryID).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, ErrUnknownItinerary
		}
		return 0, fmt.Errorf("activities: create: %w", err)
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in Update) error {
	tag, err := r.pool.Exec(ctx, `UPDATE activities SET
	name = COALESCE($2, name),
	description = COALESCE($3, description),
	starts_at = COALESCE($4, starts_at),
	ends_at = COALESCE($5, ends_at),
	itinerary_id = COALESCE($6, itinerary_id)
WHERE id = $1`, id, in.Name, in.Description, in.StartsAt, in.EndsAt, in.ItineraryID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrUnknownItinerary
		}
		return fmt.Errorf("activities: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("activities: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
