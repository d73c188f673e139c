package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

// Repository exposes persistence needed by the auth service.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	RoleByName(ctx context.Context, name string) (*Role, error)
	CreateUser(ctx context.Context, email, passwordHash string, roleID int64) (*User, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository using pgxpool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := db.Get(ctx, r.pool, &user, `SELECT u.id, u.email, u.password_hash, u.role_id, r.name AS role_name, u.created_at
FROM users u
LEFT JOIN roles r ON r.id = u.role_id
WHERE u.email = $1`, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return &user, nil
}

func (r *pgRepository) RoleByName(ctx context.Context, name string) (*Role, error) {
	var role Role
	err := db.Get(ctx, r.pool, &role, `SELECT id, name FROM roles WHERE name = $1`, name)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find role: %w", err)
	}
	return &role, nil
}

func (r *pgRepository) CreateUser(ctx context.Context, email, passwordHash string, roleID int64) (*User, error) {
	var user User
	err := db.Get(ctx, r.pool, &user, `WITH inserted AS (
	INSERT INTO users (email, password_hash, role_id) VALUES ($1, $2, $3)
	RETURNING id, email, password_hash, role_id, created_at
)
SELECT i.id, i.email, i.password_hash, i.role_id, r.name AS role_name, i.created_at
FROM inserted i
LEFT JOIN roles r ON r.id = i.role_id`, email, passwordHash, roleID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	return &user, nil
}
