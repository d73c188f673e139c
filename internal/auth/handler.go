package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	middleware *Middleware
	limiter    func(http.Handler) http.Handler
}

// NewHandler constructs a Handler instance. limiter, when non-nil, wraps the
// credential endpoints.
func NewHandler(logger *slog.Logger, service *Service, middleware *Middleware, limiter func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, middleware: middleware, limiter: limiter}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter)
		}
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
	})
	r.With(h.middleware.Authenticate).Get("/me", h.handleMe)
}

type credentialsRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Contrasena string `json:"contrasena" validate:"required"`
}

type registeredUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	RolID int64  `json:"rol_id"`
}

type sessionUser struct {
	Email string `json:"email"`
	Rol   string `json:"rol"`
}

type loginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	Usuario sessionUser `json:"usuario"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	user, err := h.service.Register(r.Context(), req.Email, req.Contrasena)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Error(w, http.StatusConflict, "El email ya está registrado")
		return
	default:
		h.logger.Error("register user", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "error interno.")
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Usuario registrado con éxito",
		"usuario": registeredUser{ID: user.ID, Email: user.Email, RolID: user.RoleID},
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	result, err := h.service.Login(r.Context(), req.Email, req.Contrasena)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrInvalidCredentials):
		httpx.Error(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	case errors.Is(err, shared.ErrRoleMissing):
		h.logger.Error("login identity without role", slog.String("email", req.Email))
		httpx.Error(w, http.StatusInternalServerError, "No se ha encontrado el rol.")
		return
	case errors.Is(err, shared.ErrServerMisconfigured):
		h.logger.Error("login with signing secret unset")
		httpx.Error(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	default:
		h.logger.Error("login", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	httpx.JSON(w, http.StatusOK, loginResponse{
		Message: "Inicio de sesión exitoso",
		Token:   result.Token,
		Usuario: sessionUser{Email: result.User.Email, Rol: *result.User.RoleName},
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Error(w, http.StatusUnauthorized, "Usuario no autenticado")
		return
	}
	httpx.JSON(w, http.StatusOK, identity)
}
