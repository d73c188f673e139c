package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

// Handler manages user management endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireModule(rbac.ModuleUsuarios))
		r.Get("/", h.listUsers)
		r.Post("/", h.createUser)
		r.Get("/{id}", h.getUser)
		r.Patch("/{id}", h.updateUser)
		r.Delete("/{id}", h.deleteUser)
	})
}

type createUserRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Contrasena string `json:"contrasena" validate:"required,min=6,max=72"`
	RolID      int64  `json:"rol_id" validate:"required,gt=0"`
}

type updateUserRequest struct {
	Contrasena *string `json:"contrasena" validate:"omitempty,min=6,max=72"`
	RolID      *int64  `json:"rol_id" validate:"omitempty,gt=0"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Error al obtener los usuarios")
		return
	}
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, "get user", err, "Error al obtener el usuario")
		return
	}
	httpx.JSON(w, http.StatusOK, NewUserResponse(user))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	user, err := h.service.CreateUser(r.Context(), CreateInput{Email: req.Email, Password: req.Contrasena, RoleID: req.RolID})
	if errors.Is(err, shared.ErrDuplicate) {
		httpx.Error(w, http.StatusConflict, "El email ya está registrado")
		return
	}
	if err != nil {
		h.fail(w, "create user", err, "Error al crear el usuario")
		return
	}
	httpx.JSON(w, http.StatusCreated, NewUserResponse(user))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	var req updateUserRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	user, err := h.service.UpdateUser(r.Context(), id, UpdateInput{Password: req.Contrasena, RoleID: req.RolID})
	if err != nil {
		h.fail(w, "update user", err, "Error al actualizar el usuario")
		return
	}
	httpx.JSON(w, http.StatusOK, NewUserResponse(user))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, "delete user", err, "Error al eliminar el usuario")
		return
	}
	httpx.Message(w, http.StatusOK, "Usuario eliminado correctamente")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, fallback string) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondNotFound(w, err, "Usuario no encontrado", fallback)
}
