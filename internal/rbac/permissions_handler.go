package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

// PermissionsHandler manages the permission catalogue.
type PermissionsHandler struct {
	logger  *slog.Logger
	service *Service
	audit   shared.AuditRecorder
	rbac    Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, audit shared.AuditRecorder, rbac Middleware) *PermissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &PermissionsHandler{logger: logger, service: service, audit: audit, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireModule(ModulePermisos))
		r.Get("/", h.listPermissions)
		r.Post("/", h.createPermission)
		r.Get("/{id}", h.getPermission)
		r.Patch("/{id}", h.updatePermission)
		r.Delete("/{id}", h.deletePermission)
	})
}

// PermissionResponse is the JSON form of a permission.
type PermissionResponse struct {
	ID          int64      `json:"id"`
	Nombre      string     `json:"nombre"`
	Descripcion string     `json:"descripcion"`
	Estado      State      `json:"estado"`
	CreadorID   *int64     `json:"usuario_creador_id,omitempty"`
	Roles       []RoleLink `json:"roles,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RoleLink is the JSON form of a RoleRef.
type RoleLink struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// NewPermissionResponse maps a permission to its JSON form.
func NewPermissionResponse(p Permission) PermissionResponse {
	resp := PermissionResponse{
		ID:          p.ID,
		Nombre:      p.Name,
		Descripcion: p.Description,
		Estado:      p.State,
		CreadorID:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, role := range p.Roles {
		resp.Roles = append(resp.Roles, RoleLink{ID: role.ID, Nombre: role.Name})
	}
	return resp
}

type createPermissionRequest struct {
	Nombre      string `json:"nombre" validate:"required"`
	Descripcion string `json:"descripcion"`
	Estado      State  `json:"estado" validate:"omitempty,oneof=activo inactivo"`
	CreadorID   *int64 `json:"usuario_creador_id" validate:"omitempty,gt=0"`
}

type updatePermissionRequest struct {
	Nombre      *string `json:"nombre" validate:"omitempty,min=1"`
	Descripcion *string `json:"descripcion"`
	Estado      *State  `json:"estado" validate:"omitempty,oneof=activo inactivo"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Error al obtener los permisos")
		return
	}
	out := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, NewPermissionResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *PermissionsHandler) getPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	perm, err := h.service.GetPermission(r.Context(), id)
	if err != nil {
		h.respondError(w, "get permission", err, "Error al obtener el permiso")
		return
	}
	httpx.JSON(w, http.StatusOK, NewPermissionResponse(perm))
}

func (h *PermissionsHandler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	creator := req.CreadorID
	if creator == nil {
		if actor := shared.ActorID(r.Context()); actor > 0 {
			creator = &actor
		}
	}
	perm, err := h.service.CreatePermission(r.Context(), PermissionInput{
		Name:        req.Nombre,
		Description: req.Descripcion,
		State:       req.Estado,
		CreatedBy:   creator,
	})
	if err != nil {
		h.respondError(w, "create permission", err, "Error al crear el permiso")
		return
	}
	h.record(r, "permission.created", perm.ID, map[string]any{"nombre": perm.Name})
	httpx.JSON(w, http.StatusCreated, NewPermissionResponse(perm))
}

func (h *PermissionsHandler) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	var req updatePermissionRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	perm, err := h.service.UpdatePermission(r.Context(), id, PermissionUpdate{
		Name:        req.Nombre,
		Description: req.Descripcion,
		State:       req.Estado,
	})
	if err != nil {
		h.respondError(w, "update permission", err, "Error al actualizar el permiso")
		return
	}
	h.record(r, "permission.updated", perm.ID, nil)
	httpx.JSON(w, http.StatusOK, NewPermissionResponse(perm))
}

func (h *PermissionsHandler) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	if err := h.service.DeletePermission(r.Context(), id); err != nil {
		h.respondError(w, "delete permission", err, "Error al eliminar el permiso")
		return
	}
	h.record(r, "permission.deleted", id, nil)
	httpx.Message(w, http.StatusOK, "Permiso eliminado correctamente")
}

func (h *PermissionsHandler) respondError(w http.ResponseWriter, op string, err error, fallback string) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondNotFound(w, err, "Permiso no encontrado", fallback)
}

func (h *PermissionsHandler) record(r *http.Request, action string, id int64, meta map[string]any) {
	err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  shared.ActorID(r.Context()),
		Action:   action,
		Entity:   "permission",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		h.logger.Warn("audit permission", slog.String("action", action), slog.Any("error", err))
	}
}
