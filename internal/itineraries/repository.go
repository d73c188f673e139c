package itineraries

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

const selectItinerary = `SELECT i.id, i.day, i.description, i.package_id, p.name AS package_name
FROM itineraries i
LEFT JOIN tour_packages p ON p.id = i.package_id`

var (
	errUnknownActivity = shared.BadReference("Alguna actividad especificada no existe")
	errUnknownPackage  = shared.BadReference("El paquete especificado no existe")
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns every itinerary without activities.
func (r *Repository) List(ctx context.Context) ([]Itinerary, error) {
	var out []Itinerary
	if err := db.Select(ctx, r.pool, &out, selectItinerary+` ORDER BY i.id`); err != nil {
		return nil, fmt.Errorf("itineraries: list: %w", err)
	}
	return out, nil
}

// Get returns an itinerary without activities.
func (r *Repository) Get(ctx context.Context, id int64) (Itinerary, error) {
	var it Itinerary
	if err := db.Get(ctx, r.pool, &it, selectItinerary+` WHERE i.id = $1`, id); err != nil {
		if db.IsNotFound(err) {
			return Itinerary{}, shared.ErrNotFound
		}
		return Itinerary{}, fmt.Errorf("itineraries: get: %w", err)
	}
	return it, nil
}

// Activities returns the activities linked to the given itineraries.
func (r *Repository) Activities(ctx context.Context, itineraryIDs []int64) (map[int64][]Activity, error) {
	var rows []Activity
	err := db.Select(ctx, r.pool, &rows, `SELECT id, itinerary_id, name, description, starts_at, ends_at
FROM activities
WHERE itinerary_id = ANY($1)
ORDER BY starts_at NULLS LAST, id`, itineraryIDs)
	if err != nil {
		return nil, fmt.Errorf("itineraries: activities: %w", err)
	}
	out := make(map[int64][]Activity, len(itineraryIDs))
	for _, a := range rows {
		out[a.ItineraryID] = append(out[a.ItineraryID], a)
	}
	return out, nil
}

// Create inserts an itinerary and links its activities in one transaction.
func (r *Repository) Create(ctx context.Context, in Input) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO itineraries (day, description, package_id)
VALUES ($1, $2, $3)
RETURNING id`, in.Day, in.Description, in.PackageID).Scan(&id)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return errUnknownPackage
			}
			return fmt.Errorf("itineraries: create: %w", err)
		}
		return linkActivities(ctx, tx, id, in.ActivityIDs)
	})
	return id, err
}

// Update applies a partial update and replaces the linked activities when
// ActivityIDs is non-empty.
func (r *Repository) Update(ctx context.Context, id int64, in Update) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE itineraries SET
	day = COALESCE($2, day),
	description = COALESCE($3, description),
	package_id = COALESCE($4, package_id)
WHERE id = $1`, id, in.Day, in.Description, in.PackageID)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return errUnknownPackage
			}
			return fmt.Errorf("itineraries: update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if len(in.ActivityIDs) == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `UPDATE activities SET itinerary_id = NULL WHERE itinerary_id = $1`, id); err != nil {
			return fmt.Errorf("itineraries: unlink activities: %w", err)
		}
		return linkActivities(ctx, tx, id, in.ActivityIDs)
	})
}

// Delete removes an itinerary. Linked activities are kept and unlinked.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM itineraries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("itineraries: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func linkActivities(ctx context.Context, q db.Querier, itineraryID int64, activityIDs []int64) error {
	if len(activityIDs) == 0 {
		return nil
	}
	ids := slices.Clone(activityIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	tag, err := q.Exec(ctx, `UPDATE activities SET itinerary_id = $1 WHERE id = ANY($2)`, itineraryID, ids)
	if err != nil {
		return fmt.Errorf("itineraries: link activities: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return errUnknownActivity
	}
	return nil
}
