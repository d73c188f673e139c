package travelservices

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/rbac"
)

// Handler exposes service catalogue endpoints.
type Handler struct {
	logger  *slog.Logger
	catalog *Catalog
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, catalog *Catalog, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, catalog: catalog, rbac: rbac}
}

// MountRoutes registers service routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireModule(rbac.ModuleServicios))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type createRequest struct {
	Nombre      string   `json:"nombre" validate:"required"`
	Descripcion *string  `json:"descripcion"`
	Precio      *float64 `json:"precio" validate:"required,gte=0"`
	Tipo        string   `json:"tipo" validate:"required"`
	PaquetesIDs []int64  `json:"paquetes_ids" validate:"omitempty,dive,gt=0"`
}

type updateRequest struct {
	Nombre      *string  `json:"nombre" validate:"omitempty,min=1"`
	Descripcion *string  `json:"descripcion"`
	Precio      *float64 `json:"precio" validate:"omitempty,gte=0"`
	Tipo        *string  `json:"tipo" validate:"omitempty,min=1"`
	PaquetesIDs *[]int64 `json:"paquetes_ids" validate:"omitempty,dive,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error("list services", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	if out == nil {
		out = []Service{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	svc, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get service", err, "Error interno del servidor")
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	svc, err := h.catalog.Create(r.Context(), Input{
		Name:        req.Nombre,
		Kind:        req.Tipo,
		Description: req.Descripcion,
		Price:       *req.Precio,
		PackageIDs:  req.PaquetesIDs,
	})
	if err != nil {
		h.fail(w, "create service", err, "Error al crear servicio")
		return
	}
	httpx.JSON(w, http.StatusCreated, svc)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	var req updateRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	svc, err := h.catalog.Update(r.Context(), id, Update{
		Name:        req.Nombre,
		Kind:        req.Tipo,
		Description: req.Descripcion,
		Price:       req.Precio,
		PackageIDs:  req.PaquetesIDs,
	})
	if err != nil {
		h.fail(w, "update service", err, "Error al actualizar servicio")
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete service", err, "Error al eliminar servicio")
		return
	}
	httpx.Message(w, http.StatusOK, "Servicio eliminado correctamente")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, fallback string) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondNotFound(w, err, "Servicio no encontrado", fallback)
}
