package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/rbac"
)

const msgNotFound = "Rol no encontrado"

// Handler manages role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireModule(rbac.ModuleRoles))
		r.Get("/", h.listRoles)
		r.Post("/", h.createRole)
		r.Get("/{id}", h.getRole)
		r.Patch("/{id}", h.updateRole)
		r.Delete("/{id}", h.deleteRole)
		r.Get("/{id}/permisos", h.listPermissions)
		r.Put("/{id}/permisos", h.setPermissions)
		r.Post("/{id}/permisos", h.attachPermission)
		r.Delete("/{id}/permisos/{permisoID}", h.detachPermission)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Error al obtener los roles")
		return
	}
	out := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, NewRoleResponse(role))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := roleID(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.fail(w, "get role", err, "Error al obtener el rol")
		return
	}
	httpx.JSON(w, http.StatusOK, NewRoleResponse(role))
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	role, err := h.service.CreateRole(r.Context(), rbac.RoleInput{
		Name:          req.Nombre,
		Description:   req.Descripcion,
		State:         req.Estado,
		CreatedBy:     req.CreadorID,
		PermissionIDs: req.Permisos,
	})
	if err != nil {
		h.fail(w, "create role", err, "Error al crear el rol")
		return
	}
	httpx.JSON(w, http.StatusCreated, NewRoleResponse(role))
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := roleID(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	role, err := h.service.UpdateRole(r.Context(), id, rbac.RoleUpdate{
		Name:          req.Nombre,
		Description:   req.Descripcion,
		State:         req.Estado,
		PermissionIDs: req.Permisos,
	})
	if err != nil {
		h.fail(w, "update role", err, "Error al actualizar el rol")
		return
	}
	httpx.JSON(w, http.StatusOK, NewRoleResponse(role))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := roleID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.fail(w, "delete role", err, "Error al eliminar el rol")
		return
	}
	httpx.Message(w, http.StatusOK, "Rol eliminado correctamente")
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := roleID(w, r)
	if !ok {
		return
	}
	perms, err := h.service.Permissions(r.Context(), id)
	if err != nil {
		h.fail(w, "role permissions", err, "Error al obtener los permisos del rol")
		return
	}
	h.writePermissions(w, perms)
}

func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := roleID(w, r)
	if !ok {
		return
	}
	var req setPermissionsRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	perms, err := h.service.SetPermissions(r.Context(), id, req.Permisos)
	if err != nil {
		h.fail(w, "set role permissions", err, "Error al asignar los permisos")
		return
	}
	h.writePermissions(w, perms)
}

func (h *Handler) attachPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := roleID(w, r)
	if !ok {
		return
	}
	var req attachPermissionRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	perms, err := h.service.AttachPermission(r.Context(), id, req.PermisoID)
	if err != nil {
		h.fail(w, "attach role permission", err, "Error al asignar el permiso")
		return
	}
	h.writePermissions(w, perms)
}

func (h *Handler) detachPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := roleID(w, r)
	if !ok {
		return
	}
	permID, ok := httpx.IDParam(r, "permisoID")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID de permiso inválido")
		return
	}
	perms, err := h.service.DetachPermission(r.Context(), id, permID)
	if err != nil {
		h.fail(w, "detach role permission", err, "Error al quitar el permiso")
		return
	}
	h.writePermissions(w, perms)
}

func (h *Handler) writePermissions(w http.ResponseWriter, perms []rbac.Permission) {
	out := make([]PermissionSummary, 0, len(perms))
	for _, p := range perms {
		out = append(out, newPermissionSummary(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, fallback string) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondNotFound(w, err, msgNotFound, fallback)
}

func roleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
	}
	return id, ok
}
