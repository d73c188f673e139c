package roles

import (
	"time"

	"github.com/viajes-nova/viajes-api/internal/rbac"
)

// Creator is the short form of the identity that created a role.
type Creator struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// PermissionSummary is a permission as listed inside a role.
type PermissionSummary struct {
	ID          int64      `json:"id"`
	Nombre      string     `json:"nombre"`
	Descripcion string     `json:"descripcion"`
	Estado      rbac.State `json:"estado"`
}

// RoleResponse is the JSON form of a role.
type RoleResponse struct {
	ID             int64               `json:"id"`
	Nombre         string              `json:"nombre"`
	Descripcion    string              `json:"descripcion"`
	Estado         rbac.State          `json:"estado"`
	UsuarioCreador *Creator            `json:"usuario_creador"`
	Permisos       []PermissionSummary `json:"permisos"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewRoleResponse maps a role to its JSON form.
func NewRoleResponse(role rbac.Role) RoleResponse {
	resp := RoleResponse{
		ID:          role.ID,
		Nombre:      role.Name,
		Descripcion: role.Description,
		Estado:      role.State,
		Permisos:    make([]PermissionSummary, 0, len(role.Permissions)),
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
	if role.CreatedBy != nil {
		creator := &Creator{ID: *role.CreatedBy}
		if role.CreatorEmail != nil {
			creator.Email = *role.CreatorEmail
		}
		resp.UsuarioCreador = creator
	}
	for _, p := range role.Permissions {
		resp.Permisos = append(resp.Permisos, newPermissionSummary(p))
	}
	return resp
}

func newPermissionSummary(p rbac.Permission) PermissionSummary {
	return PermissionSummary{ID: p.ID, Nombre: p.Name, Descripcion: p.Description, Estado: p.State}
}

type createRoleRequest struct {
	Nombre      string     `json:"nombre" validate:"required"`
	Descripcion string     `json:"descripcion"`
	Estado      rbac.State `json:"estado" validate:"omitempty,oneof=activo inactivo"`
	CreadorID   *int64     `json:"usuario_creador_id" validate:"omitempty,gt=0"`
	Permisos    []int64    `json:"permisos" validate:"dive,gt=0"`
}

type updateRoleRequest struct {
	Nombre      *string     `json:"nombre" validate:"omitempty,min=1"`
	Descripcion *string     `json:"descripcion"`
	Estado      *rbac.State `json:"estado" validate:"omitempty,oneof=activo inactivo"`
	Permisos    []int64     `json:"permisos" validate:"dive,gt=0"`
}

type setPermissionsRequest struct {
	Permisos []int64 `json:"permisos" validate:"dive,gt=0"`
}

type attachPermissionRequest struct {
	PermisoID int64 `json:"permiso_id" validate:"required,gt=0"`
}
