package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/viajes-nova/viajes-api/internal/shared"
)

// ErrNoPermissions is returned when a role would be created without any permission.
var ErrNoPermissions = shared.Invalid("Debes seleccionar al menos un permiso")

// Service orchestrates RBAC operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service backed by the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// HasModuleAccess reports whether the role named roleName currently holds the
// permission named after module. Permission content is always read live.
func (s *Service) HasModuleAccess(ctx context.Context, roleName string, module Module) (bool, error) {
	return s.repo.HasModuleAccess(ctx, roleName, string(module))
}

// ListRoles returns all roles with their permissions.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(roles))
	for _, role := range roles {
		ids = append(ids, role.ID)
	}
	perms, err := s.repo.RolePermissions(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		roles[i].Permissions = nonNil(perms[roles[i].ID])
	}
	return roles, nil
}

// GetRole fetches a role with its permissions.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	perms, err := s.repo.RolePermissions(ctx, id)
	if err != nil {
		return Role{}, err
	}
	role.Permissions = nonNil(perms[id])
	return role, nil
}

// CreateRole inserts a role and its initial permission set in one transaction.
func (s *Service) CreateRole(ctx context.Context, in RoleInput) (Role, error) {
	in.Name = normalizeName(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return Role{}, shared.Invalid("Falta nombre")
	}
	if in.State == "" {
		in.State = StateActive
	}
	if !in.State.Valid() {
		return Role{}, shared.Invalid("El estado debe ser activo o inactivo")
	}
	if len(in.PermissionIDs) == 0 {
		return Role{}, ErrNoPermissions
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requirePermissions(ctx, tx, in.PermissionIDs); err != nil {
			return err
		}
		created, err := tx.CreateRole(ctx, in)
		if err != nil {
			return err
		}
		id = created
		return replace(ctx, tx, id, in.PermissionIDs)
	})
	if err != nil {
		return Role{}, err
	}
	return s.GetRole(ctx, id)
}

// UpdateRole applies a partial update. A non-empty permission list replaces
// the role's set within the same transaction.
func (s *Service) UpdateRole(ctx context.Context, id int64, in RoleUpdate) (Role, error) {
	if in.Name != nil {
		name := normalizeName(*in.Name)
		if name == "" {
			return Role{}, shared.Invalid("Falta nombre")
		}
		in.Name = &name
	}
	if in.State != nil && !in.State.Valid() {
		return Role{}, shared.Invalid("El estado debe ser activo o inactivo")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockRole(ctx, id); err != nil {
			return err
		}
		if err := tx.UpdateRole(ctx, id, in); err != nil {
			return err
		}
		if len(in.PermissionIDs) == 0 {
			return nil
		}
		if err := requirePermissions(ctx, tx, in.PermissionIDs); err != nil {
			return err
		}
		return replace(ctx, tx, id, in.PermissionIDs)
	})
	if err != nil {
		return Role{}, err
	}
	return s.GetRole(ctx, id)
}

// DeleteRole removes a role. Roles still assigned to users yield shared.ErrConflict.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

// RolePermissions lists the permissions held by a role.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	perms, err := s.repo.RolePermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return nonNil(perms[roleID]), nil
}

// Attach grants a permission to a role. Attaching a held permission changes nothing.
func (s *Service) Attach(ctx context.Context, roleID, permissionID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockRole(ctx, roleID); err != nil {
			return err
		}
		if err := requirePermissions(ctx, tx, []int64{permissionID}); err != nil {
			return err
		}
		held, err := tx.RoleHolds(ctx, roleID, permissionID)
		if err != nil || held {
			return err
		}
		return tx.Attach(ctx, roleID, permissionID)
	})
}

// Detach revokes a permission from a role. Detaching an absent permission is a no-op.
func (s *Service) Detach(ctx context.Context, roleID, permissionID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockRole(ctx, roleID); err != nil {
			return err
		}
		return tx.Detach(ctx, roleID, permissionID)
	})
}

// Set replaces the role's permission set atomically.
func (s *Service) Set(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockRole(ctx, roleID); err != nil {
			return err
		}
		if err := requirePermissions(ctx, tx, permissionIDs); err != nil {
			return err
		}
		return replace(ctx, tx, roleID, permissionIDs)
	})
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// GetPermission fetches a permission with the roles holding it.
func (s *Service) GetPermission(ctx context.Context, id int64) (Permission, error) {
	perm, err := s.repo.GetPermission(ctx, id)
	if err != nil {
		return Permission{}, err
	}
	roles, err := s.repo.PermissionRoles(ctx, id)
	if err != nil {
		return Permission{}, err
	}
	perm.Roles = roles
	if perm.Roles == nil {
		perm.Roles = []RoleRef{}
	}
	return perm, nil
}

// CreatePermission inserts a permission.
func (s *Service) CreatePermission(ctx context.Context, in PermissionInput) (Permission, error) {
	in.Name = normalizeName(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return Permission{}, shared.Invalid("Falta nombre")
	}
	if in.State == "" {
		in.State = StateActive
	}
	if !in.State.Valid() {
		return Permission{}, shared.Invalid("El estado debe ser activo o inactivo")
	}
	return s.repo.CreatePermission(ctx, in)
}

// EnsurePermission returns the permission named name, creating it when absent.
func (s *Service) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	perm, err := s.CreatePermission(ctx, PermissionInput{Name: name, Description: description})
	if !errors.Is(err, shared.ErrDuplicate) {
		return perm, err
	}
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return Permission{}, err
	}
	name = normalizeName(name)
	for _, p := range perms {
		if p.Name == name {
			return p, nil
		}
	}
	return Permission{}, shared.ErrNotFound
}

// UpdatePermission applies a partial update.
func (s *Service) UpdatePermission(ctx context.Context, id int64, in PermissionUpdate) (Permission, error) {
	if in.Name != nil {
		name := normalizeName(*in.Name)
		if name == "" {
			return Permission{}, shared.Invalid("Falta nombre")
		}
		in.Name = &name
	}
	if in.State != nil && !in.State.Valid() {
		return Permission{}, shared.Invalid("El estado debe ser activo o inactivo")
	}
	return s.repo.UpdatePermission(ctx, id, in)
}

// DeletePermission removes a permission and its role links.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	return s.repo.DeletePermission(ctx, id)
}

func requirePermissions(ctx context.Context, tx TxRepository, ids []int64) error {
	missing, err := tx.MissingPermissions(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return shared.NotFound(fmt.Sprintf("Permisos no encontrados: %v", missing))
	}
	return nil
}

func replace(ctx context.Context, tx TxRepository, roleID int64, ids []int64) error {
	if err := tx.ClearRole(ctx, roleID); err != nil {
		return err
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if err := tx.Attach(ctx, roleID, id); err != nil {
			return err
		}
	}
	return nil
}

// normalizeName trims and NFC-normalises role and permission names so that
// visually identical names compare equal in the access lookup.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func nonNil(perms []Permission) []Permission {
	if perms == nil {
		return []Permission{}
	}
	return perms
}
