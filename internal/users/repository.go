package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

const selectUser = `SELECT u.id, u.email, u.password_hash, u.role_id, r.name AS role_name, u.created_at, u.updated_at
FROM users u
LEFT JOIN roles r ON r.id = u.role_id`

var errUnknownRole = shared.BadReference("El rol especificado no existe")

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := db.Select(ctx, r.pool, &users, selectUser+` ORDER BY u.id`); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return users, nil
}

// GetUser returns a single user.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	if err := db.Get(ctx, r.pool, &user, selectUser+` WHERE u.id = $1`, id); err != nil {
		if db.IsNotFound(err) {
			return User{}, shared.ErrNotFound
		}
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	return user, nil
}

// CreateUser inserts a user holding an already hashed password.
func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string, roleID int64) (User, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO users (email, password_hash, role_id) VALUES ($1, $2, $3) RETURNING id`,
		email, passwordHash, roleID).Scan(&id)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return User{}, shared.ErrDuplicate
		case db.IsForeignKeyViolation(err):
			return User{}, errUnknownRole
		}
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	return r.GetUser(ctx, id)
}

// UpdateUser changes the password digest and/or role. Nil fields are kept.
func (r *Repository) UpdateUser(ctx context.Context, id int64, passwordHash *string, roleID *int64) (User, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET
	password_hash = COALESCE($2, password_hash),
	role_id = COALESCE($3, role_id),
	updated_at = NOW()
WHERE id = $1`, id, passwordHash, roleID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return User{}, errUnknownRole
		}
		return User{}, fmt.Errorf("users: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return User{}, shared.ErrNotFound
	}
	return r.GetUser(ctx, id)
}

// DeleteUser removes a user.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.Conflict("El usuario tiene reservas asociadas")
		}
		return fmt.Errorf("users: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
