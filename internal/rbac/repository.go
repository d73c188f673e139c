package rbac

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

// Repository is the persistence port of the role-permission graph.
type Repository interface {
	HasModuleAccess(ctx context.Context, roleName, permissionName string) (bool, error)
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	RolePermissions(ctx context.Context, roleIDs ...int64) (map[int64][]Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	PermissionRoles(ctx context.Context, permissionID int64) ([]RoleRef, error)
	CreatePermission(ctx context.Context, in PermissionInput) (Permission, error)
	UpdatePermission(ctx context.Context, id int64, in PermissionUpdate) (Permission, error)
	DeletePermission(ctx context.Context, id int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the graph mutations that must commit together.
type TxRepository interface {
	LockRole(ctx context.Context, roleID int64) error
	CreateRole(ctx context.Context, in RoleInput) (int64, error)
	UpdateRole(ctx context.Context, id int64, in RoleUpdate) error
	MissingPermissions(ctx context.Context, ids []int64) ([]int64, error)
	RoleHolds(ctx context.Context, roleID, permissionID int64) (bool, error)
	Attach(ctx context.Context, roleID, permissionID int64) error
	Detach(ctx context.Context, roleID, permissionID int64) error
	ClearRole(ctx context.Context, roleID int64) error
}

const roleColumns = `r.id, r.name, r.description, r.state, r.created_by, u.email AS creator_email, r.created_at, r.updated_at`

const permissionColumns = `p.id, p.name, p.description, p.state, p.created_by, p.created_at, p.updated_at`

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) HasModuleAccess(ctx context.Context, roleName, permissionName string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
	SELECT 1
	FROM roles r
	JOIN role_permissions rp ON rp.role_id = r.id
	JOIN permissions p ON p.id = rp.permission_id
	WHERE r.name = $1 AND p.name = $2
)`, roleName, permissionName).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("rbac: module access: %w", err)
	}
	return ok, nil
}

func (r *pgRepository) ListRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := db.Select(ctx, r.pool, &roles, `SELECT `+roleColumns+`
FROM roles r
LEFT JOIN users u ON u.id = r.created_by
ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	return roles, nil
}

func (r *pgRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := db.Get(ctx, r.pool, &role, `SELECT `+roleColumns+`
FROM roles r
LEFT JOIN users u ON u.id = r.created_by
WHERE r.id = $1`, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, fmt.Errorf("rbac: get role: %w", err)
	}
	return role, nil
}

func (r *pgRepository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.Conflict("El rol está asignado a usuarios y no puede eliminarse")
		}
		return fmt.Errorf("rbac: delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type assignmentRow struct {
	RoleID int64 `db:"role_id"`
	Permission
}

func (r *pgRepository) RolePermissions(ctx context.Context, roleIDs ...int64) (map[int64][]Permission, error) {
	out := make(map[int64][]Permission, len(roleIDs))
	if len(roleIDs) == 0 {
		return out, nil
	}
	var rows []assignmentRow
	err := db.Select(ctx, r.pool, &rows, `SELECT rp.role_id, `+permissionColumns+`
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = ANY($1)
ORDER BY rp.role_id, p.id`, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	for _, row := range rows {
		out[row.RoleID] = append(out[row.RoleID], row.Permission)
	}
	return out, nil
}

func (r *pgRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	var perms []Permission
	if err := db.Select(ctx, r.pool, &perms, `SELECT `+permissionColumns+` FROM permissions p ORDER BY p.id`); err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	return perms, nil
}

func (r *pgRepository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	var perm Permission
	err := db.Get(ctx, r.pool, &perm, `SELECT `+permissionColumns+` FROM permissions p WHERE p.id = $1`, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, fmt.Errorf("rbac: get permission: %w", err)
	}
	return perm, nil
}

func (r *pgRepository) PermissionRoles(ctx context.Context, permissionID int64) ([]RoleRef, error) {
	var refs []RoleRef
	err := db.Select(ctx, r.pool, &refs, `SELECT r.id, r.name
FROM role_permissions rp
JOIN roles r ON r.id = rp.role_id
WHERE rp.permission_id = $1
ORDER BY r.id`, permissionID)
	if err != nil {
		return nil, fmt.Errorf("rbac: permission roles: %w", err)
	}
	return refs, nil
}

func (r *pgRepository) CreatePermission(ctx context.Context, in PermissionInput) (Permission, error) {
	var perm Permission
	err := db.Get(ctx, r.pool, &perm, `INSERT INTO permissions (name, description, state, created_by)
VALUES ($1, $2, $3, $4)
RETURNING id, name, description, state, created_by, created_at, updated_at`, in.Name, in.Description, in.State, in.CreatedBy)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Permission{}, shared.ErrDuplicate
		}
		if db.IsForeignKeyViolation(err) {
			return Permission{}, shared.ErrBadReference
		}
		return Permission{}, fmt.Errorf("rbac: create permission: %w", err)
	}
	return perm, nil
}

func (r *pgRepository) UpdatePermission(ctx context.Context, id int64, in PermissionUpdate) (Permission, error) {
	var perm Permission
	err := db.Get(ctx, r.pool, &perm, `UPDATE permissions SET
	name = COALESCE($2, name),
	description = COALESCE($3, description),
	state = COALESCE($4, state),
	updated_at = NOW()
WHERE id = $1
RETURNING id, name, description, state, created_by, created_at, updated_at`, id, in.Name, in.Description, in.State)
	if err != nil {
		if db.IsNotFound(err) {
			return Permission{}, shared.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return Permission{}, shared.ErrDuplicate
		}
		return Permission{}, fmt.Errorf("rbac: update permission: %w", err)
	}
	return perm, nil
}

func (r *pgRepository) DeletePermission(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("rbac: delete permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

type txRepo struct {
	tx pgx.Tx
}

// LockRole takes a row lock on the role so concurrent membership writes serialise.
func (t *txRepo) LockRole(ctx context.Context, roleID int64) error {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&id)
	if err != nil {
		if db.IsNotFound(err) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("rbac: lock role: %w", err)
	}
	return nil
}

func (t *txRepo) CreateRole(ctx context.Context, in RoleInput) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO roles (name, description, state, created_by)
VALUES ($1, $2, $3, $4)
RETURNING id`, in.Name, in.Description, in.State, in.CreatedBy).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, shared.ErrDuplicate
		}
		if db.IsForeignKeyViolation(err) {
			return 0, shared.ErrBadReference
		}
		return 0, fmt.Errorf("rbac: create role: %w", err)
	}
	return id, nil
}

func (t *txRepo) UpdateRole(ctx context.Context, id int64, in RoleUpdate) error {
	tag, err := t.tx.Exec(ctx, `UPDATE roles SET
	name = COALESCE($2, name),
	description = COALESCE($3, description),
	state = COALESCE($4, state),
	updated_at = NOW()
WHERE id = $1`, id, in.Name, in.Description, in.State)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return shared.ErrDuplicate
		}
		return fmt.Errorf("rbac: update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) MissingPermissions(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []int64
	if err := db.Select(ctx, t.tx, &found, `SELECT id FROM permissions WHERE id = ANY($1)`, ids); err != nil {
		return nil, fmt.Errorf("rbac: check permissions: %w", err)
	}
	var missing []int64
	for _, id := range ids {
		if !slices.Contains(found, id) && !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (t *txRepo) RoleHolds(ctx context.Context, roleID, permissionID int64) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM role_permissions WHERE role_id = $1 AND permission_id = $2)`, roleID, permissionID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("rbac: role holds: %w", err)
	}
	return ok, nil
}

func (t *txRepo) Attach(ctx context.Context, roleID, permissionID int64) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, roleID, permissionID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("rbac: attach permission: %w", err)
	}
	return nil
}

func (t *txRepo) Detach(ctx context.Context, roleID, permissionID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID); err != nil {
		return fmt.Errorf("rbac: detach permission: %w", err)
	}
	return nil
}

func (t *txRepo) ClearRole(ctx context.Context, roleID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("rbac: clear role: %w", err)
	}
	return nil
}
