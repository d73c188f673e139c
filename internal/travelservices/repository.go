package travelservices

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

const serviceColumns = `id, name, kind, description, price`

var errUnknownPackage = shared.BadReference("Algún paquete especificado no existe")

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns every service without package links.
func (r *Repository) List(ctx context.Context) ([]Service, error) {
	var out []Service
	if err := db.Select(ctx, r.pool, &out, `SELECT `+serviceColumns+` FROM services ORDER BY id`); err != nil {
		return nil, fmt.Errorf("travelservices: list: %w", err)
	}
	return out, nil
}

// Get returns a service without package links.
func (r *Repository) Get(ctx context.Context, id int64) (Service, error) {
	var s Service
	if err := db.Get(ctx, r.pool, &s, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id); err != nil {
		if db.IsNotFound(err) {
			return Service{}, shared.ErrNotFound
		}
		return Service{}, fmt.Errorf("travelservices: get: %w", err)
	}
	return s, nil
}

// Packages returns the packages linked to the given services.
func (r *Repository) Packages(ctx context.Context, serviceIDs []int64) (map[int64][]PackageRef, error) {
	var rows []PackageRef
	err := db.Select(ctx, r.pool, &rows, `SELECT p.id, ps.service_id, p.name
FROM package_services ps
JOIN tour_packages p ON p.id = ps.package_id
WHERE ps.service_id = ANY($1)
ORDER BY ps.service_id, p.id`, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("travelservices: packages: %w", err)
	}
	out := make(map[int64][]PackageRef, len(serviceIDs))
	for _, p := range rows {
		out[p.ServiceID] = append(out[p.ServiceID], p)
	}
	return out, nil
}

// Create inserts a service and its package links in one transaction.
func (r *Repository) Create(ctx context.Context, in Input) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO services (name, kind, description, price)
VALUES ($1, $2, $3, $4)
RETURNING id`, in.Name, in.Kind, in.Description, in.Price).Scan(&id)
		if err != nil {
			return fmt.Errorf("travelservices: create: %w", err)
		}
		return linkPackages(ctx, tx, id, in.PackageIDs)
	})
	return id, err
}

// Update applies a partial update. When PackageIDs is set the old links are
// removed and the new ones inserted within the same transaction.
func (r *Repository) Update(ctx context.Context, id int64, in Update) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE services SET
	name = COALESCE($2, name),
	kind = COALESCE($3, kind),
	description = COALESCE($4, description),
	price = COALESCE($5, price)
WHERE id = $1`, id, in.Name, in.Kind, in.Description, in.Price)
		if err != nil {
			return fmt.Errorf("travelservices: update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if in.PackageIDs == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM package_services WHERE service_id = $1`, id); err != nil {
			return fmt.Errorf("travelservices: clear packages: %w", err)
		}
		return linkPackages(ctx, tx, id, *in.PackageIDs)
	})
}

// Delete removes a service; package links cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("travelservices: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func linkPackages(ctx context.Context, tx pgx.Tx, serviceID int64, packageIDs []int64) error {
	if len(packageIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pid := range packageIDs {
		batch.Queue(`INSERT INTO package_services (package_id, service_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, pid, serviceID)
	}
	results := tx.SendBatch(ctx, batch)
	for range packageIDs {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			if db.IsForeignKeyViolation(err) {
				return errUnknownPackage
			}
			return fmt.Errorf("travelservices: link package: %w", err)
		}
	}
	return results.Close()
}
