package reservations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

const selectReservation = `SELECT r.id, r.user_id, r.package_id, r.starts_at, r.ends_at, r.state, r.party_size,
	r.total_price, r.payment_method, r.comments, r.created_at,
	u.email AS user_email, p.name AS package_name
FROM reservations r
JOIN users u ON u.id = r.user_id
JOIN tour_packages p ON p.id = r.package_id`

var errUnknownReference = shared.BadReference("El usuario o el paquete especificado no existe")

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns every reservation with its user and package.
func (r *Repository) List(ctx context.Context) ([]Reservation, error) {
	var out []Reservation
	if err := db.Select(ctx, r.pool, &out, selectReservation+` ORDER BY r.id`); err != nil {
		return nil, fmt.Errorf("reservations: list: %w", err)
	}
	return out, nil
}

// Get returns a reservation with its user and package.
func (r *Repository) Get(ctx context.Context, id int64) (Reservation, error) {
	var res Reservation
	if err := db.Get(ctx, r.pool, &res, selectReservation+` WHERE r.id = $1`, id); err != nil {
		if db.IsNotFound(err) {
			return Reservation{}, shared.ErrNotFound
		}
		return Reservation{}, fmt.Errorf("reservations: get: %w", err)
	}
	return res, nil
}

// Create inserts a reservation.
func (r *Repository) Create(ctx context.Context, in Input) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO reservations
	(user_id, package_id, starts_at, ends_at, state, party_size, total_price, payment_method, comments)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`,
		in.UserID, in.PackageID, in.StartsAt, in.EndsAt, in.State, in.PartySize, in.TotalPrice, in.PaymentMethod, in.Comments,
	).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, errUnknownReference
		}
		return 0, fmt.Errorf("reservations: create: %w", err)
	}
	return id, nil
}

// Update applies every non-nil field.
func (r *Repository) Update(ctx context.Context, id int64, in Update) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reservations SET
	user_id = COALESCE($2, user_id),
	package_id = COALESCE($3, package_id),
	starts_at = COALESCE($4, starts_at),
	ends_at = COALESCE($5, ends_at),
	state = COALESCE($6, state),
	party_size = COALESCE($7, party_size),
	total_price = COALESCE($8, total_price),
	payment_method = COALESCE($9, payment_method),
	comments = COALESCE($10, comments)
WHERE id = $1`,
		id, in.UserID, in.PackageID, in.StartsAt, in.EndsAt, in.State, in.PartySize, in.TotalPrice, in.PaymentMethod, in.Comments)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return errUnknownReference
		}
		return fmt.Errorf("reservations: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a reservation.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("reservations: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
