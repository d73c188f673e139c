package roles

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

// Graph is the subset of rbac.Service used for role management.
type Graph interface {
	ListRoles(ctx context.Context) ([]rbac.Role, error)
	GetRole(ctx context.Context, id int64) (rbac.Role, error)
	CreateRole(ctx context.Context, in rbac.RoleInput) (rbac.Role, error)
	UpdateRole(ctx context.Context, id int64, in rbac.RoleUpdate) (rbac.Role, error)
	DeleteRole(ctx context.Context, id int64) error
	RolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error)
	Attach(ctx context.Context, roleID, permissionID int64) error
	Detach(ctx context.Context, roleID, permissionID int64) error
	Set(ctx context.Context, roleID int64, permissionIDs []int64) error
}

// Service handles role business logic and records an audit entry for every
// successful mutation.
type Service struct {
	graph  Graph
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(graph Graph, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{graph: graph, audit: audit, logger: logger}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	return s.graph.ListRoles(ctx)
}

// GetRole returns a role with its permissions.
func (s *Service) GetRole(ctx context.Context, id int64) (rbac.Role, error) {
	return s.graph.GetRole(ctx, id)
}

// CreateRole creates a role. The caller becomes the creator when none is given.
func (s *Service) CreateRole(ctx context.Context, in rbac.RoleInput) (rbac.Role, error) {
	if in.CreatedBy == nil {
		if actor := shared.ActorID(ctx); actor > 0 {
			in.CreatedBy = &actor
		}
	}
	role, err := s.graph.CreateRole(ctx, in)
	if err != nil {
		return rbac.Role{}, err
	}
	s.record(ctx, "role.created", role.ID, map[string]any{"nombre": role.Name, "permisos": in.PermissionIDs})
	return role, nil
}

// UpdateRole applies a partial update.
func (s *Service) UpdateRole(ctx context.Context, id int64, in rbac.RoleUpdate) (rbac.Role, error) {
	role, err := s.graph.UpdateRole(ctx, id, in)
	if err != nil {
		return rbac.Role{}, err
	}
	var meta map[string]any
	if len(in.PermissionIDs) > 0 {
		meta = map[string]any{"permisos": in.PermissionIDs}
	}
	s.record(ctx, "role.updated", id, meta)
	return role, nil
}

// DeleteRole removes a role.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.graph.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "role.deleted", id, nil)
	return nil
}

// Permissions lists the permissions of a role.
func (s *Service) Permissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	return s.graph.RolePermissions(ctx, roleID)
}

// SetPermissions replaces the permission set of a role.
func (s *Service) SetPermissions(ctx context.Context, roleID int64, permissionIDs []int64) ([]rbac.Permission, error) {
	if len(permissionIDs) == 0 {
		return nil, rbac.ErrNoPermissions
	}
	if err := s.graph.Set(ctx, roleID, permissionIDs); err != nil {
		return nil, err
	}
	s.record(ctx, "role.permissions_set", roleID, map[string]any{"permisos": permissionIDs})
	return s.graph.RolePermissions(ctx, roleID)
}

// AttachPermission grants a single permission.
func (s *Service) AttachPermission(ctx context.Context, roleID, permissionID int64) ([]rbac.Permission, error) {
	if err := s.graph.Attach(ctx, roleID, permissionID); err != nil {
		return nil, err
	}
	s.record(ctx, "role.permission_attached", roleID, map[string]any{"permiso_id": permissionID})
	return s.graph.RolePermissions(ctx, roleID)
}

// DetachPermission revokes a single permission.
func (s *Service) DetachPermission(ctx context.Context, roleID, permissionID int64) ([]rbac.Permission, error) {
	if err := s.graph.Detach(ctx, roleID, permissionID); err != nil {
		return nil, err
	}
	s.record(ctx, "role.permission_detached", roleID, map[string]any{"permiso_id": permissionID})
	return s.graph.RolePermissions(ctx, roleID)
}

func (s *Service) record(ctx context.Context, action string, roleID int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit role", slog.String("action", action), slog.Any("error", err))
	}
}
