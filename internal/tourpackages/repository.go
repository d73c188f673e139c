package tourpackages

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

const packageColumns = `id, name, description, total_price, duration_days, starts_at, ends_at, state, created_at`

var errUnknownService = shared.BadReference("Algún servicio especificado no existe")

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns every package without relations.
func (r *Repository) List(ctx context.Context) ([]Package, error) {
	var out []Package
	if err := db.Select(ctx, r.pool, &out, `SELECT `+packageColumns+` FROM tour_packages ORDER BY id`); err != nil {
		return nil, fmt.Errorf("tourpackages: list: %w", err)
	}
	return out, nil
}

// Get returns a package without relations.
func (r *Repository) Get(ctx context.Context, id int64) (Package, error) {
	var p Package
	if err := db.Get(ctx, r.pool, &p, `SELECT `+packageColumns+` FROM tour_packages WHERE id = $1`, id); err != nil {
		if db.IsNotFound(err) {
			return Package{}, shared.ErrNotFound
		}
		return Package{}, fmt.Errorf("tourpackages: get: %w", err)
	}
	return p, nil
}

// Itineraries returns the itineraries of the given packages with their activities.
func (r *Repository) Itineraries(ctx context.Context, packageIDs []int64) (map[int64][]Itinerary, error) {
	var its []Itinerary
	err := db.Select(ctx, r.pool, &its, `SELECT id, package_id, day, description
FROM itineraries
WHERE package_id = ANY($1)
ORDER BY package_id, day, id`, packageIDs)
	if err != nil {
		return nil, fmt.Errorf("tourpackages: itineraries: %w", err)
	}
	ids := make([]int64, 0, len(its))
	for _, it := range its {
		ids = append(ids, it.ID)
	}
	var acts []Activity
	err = db.Select(ctx, r.pool, &acts, `SELECT id, itinerary_id, name, description, starts_at, ends_at
FROM activities
WHERE itinerary_id = ANY($1)
ORDER BY starts_at NULLS LAST, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("tourpackages: activities: %w", err)
	}
	byItinerary := make(map[int64][]Activity, len(its))
	for _, a := range acts {
		byItinerary[a.ItineraryID] = append(byItinerary[a.ItineraryID], a)
	}
	out := make(map[int64][]Itinerary, len(packageIDs))
	for _, it := range its {
		it.Activities = byItinerary[it.ID]
		if it.Activities == nil {
			it.Activities = []Activity{}
		}
		out[it.PackageID] = append(out[it.PackageID], it)
	}
	return out, nil
}

// Services returns the services bundled with the given packages.
func (r *Repository) Services(ctx context.Context, packageIDs []int64) (map[int64][]LinkedService, error) {
	var rows []LinkedService
	err := db.Select(ctx, r.pool, &rows, `SELECT s.id, ps.package_id, s.name, s.kind, s.description, s.price
FROM package_services ps
JOIN services s ON s.id = ps.service_id
WHERE ps.package_id = ANY($1)
ORDER BY ps.package_id, s.id`, packageIDs)
	if err != nil {
		return nil, fmt.Errorf("tourpackages: services: %w", err)
	}
	out := make(map[int64][]LinkedService, len(packageIDs))
	for _, s := range rows {
		out[s.PackageID] = append(out[s.PackageID], s)
	}
	return out, nil
}

// Create inserts a package and its service links in one transaction.
func (r *Repository) Create(ctx context.Context, in Input) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO tour_packages (name, description, total_price, duration_days, starts_at, ends_at, state)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`, in.Name, in.Description, in.TotalPrice, in.DurationDays, in.StartsAt, in.EndsAt, in.State).Scan(&id)
		if err != nil {
			return fmt.Errorf("tourpackages: create: %w", err)
		}
		return linkServices(ctx, tx, id, in.ServiceIDs)
	})
	return id, err
}

// Update applies a partial update and optionally replaces the service links.
func (r *Repository) Update(ctx context.Context, id int64, in Update) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE tour_packages SET
	name = COALESCE($2, name),
	description = COALESCE($3, description),
	total_price = COALESCE($4, total_price),
	duration_days = COALESCE($5, duration_days),
	starts_at = COALESCE($6, starts_at),
	ends_at = COALESCE($7, ends_at),
	state = COALESCE($8, state)
WHERE id = $1`, id, in.Name, in.Description, in.TotalPrice, in.DurationDays, in.StartsAt, in.EndsAt, in.State)
		if err != nil {
			return fmt.Errorf("tourpackages: update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if in.ServiceIDs == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM package_services WHERE package_id = $1`, id); err != nil {
			return fmt.Errorf("tourpackages: clear services: %w", err)
		}
		return linkServices(ctx, tx, id, *in.ServiceIDs)
	})
}

// Delete removes a package. Itineraries cascade; reservations block the delete.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tour_packages WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.Conflict("El paquete tiene reservas asociadas")
		}
		return fmt.Errorf("tourpackages: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func linkServices(ctx context.Context, q db.Querier, packageID int64, serviceIDs []int64) error {
	for _, sid := range serviceIDs {
		_, err := q.Exec(ctx, `INSERT INTO package_services (package_id, service_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, packageID, sid)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return errUnknownService
			}
			return fmt.Errorf("tourpackages: link service: %w", err)
		}
	}
	return nil
}
