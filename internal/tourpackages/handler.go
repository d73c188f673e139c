package tourpackages

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/rbac"
)

// Handler exposes package endpoints.
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

// MountRoutes registers package routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireModule(rbac.ModulePaquetes))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type createRequest struct {
	Nombre       string   `json:"nombre" validate:"required"`
	Descripcion  *string  `json:"descripcion"`
	PrecioTotal  *float64 `json:"precio_total" validate:"required,gte=0"`
	DuracionDias *int     `json:"duracion_dias" validate:"required,gte=0"`
	FechaInicio  string   `json:"fecha_inicio" validate:"required,iso8601"`
	FechaFin     string   `json:"fecha_fin" validate:"required,iso8601"`
	Estado       string   `json:"estado"`
	ServiciosIDs []int64  `json:"servicios_ids" validate:"omitempty,dive,gt=0"`
}

type updateRequest struct {
	Nombre       *string  `json:"nombre" validate:"omitempty,min=1"`
	Descripcion  *string  `json:"descripcion"`
	PrecioTotal  *float64 `json:"precio_total" validate:"omitempty,gte=0"`
	DuracionDias *int     `json:"duracion_dias" validate:"omitempty,gte=0"`
	FechaInicio  *string  `json:"fecha_inicio" validate:"omitempty,iso8601"`
	FechaFin     *string  `json:"fecha_fin" validate:"omitempty,iso8601"`
	Estado       *string  `json:"estado" validate:"omitempty,min=1"`
	ServiciosIDs *[]int64 `json:"servicios_ids" validate:"omitempty,dive,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list packages", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Error al obtener los paquetes turísticos")
		return
	}
	if pkgs == nil {
		pkgs = []Package{}
	}
	httpx.JSON(w, http.StatusOK, pkgs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	pkg, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get package", err, "Error al buscar el paquete")
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	start, _ := httpx.ParseISODate(req.FechaInicio)
	end, _ := httpx.ParseISODate(req.FechaFin)
	pkg, err := h.service.Create(r.Context(), Input{
		Name:         req.Nombre,
		Description:  req.Descripcion,
		TotalPrice:   *req.PrecioTotal,
		DurationDays: *req.DuracionDias,
		StartsAt:     start,
		EndsAt:       end,
		State:        req.Estado,
		ServiceIDs:   req.ServiciosIDs,
	})
	if err != nil {
		h.fail(w, "create package", err, "Error al crear el paquete turístico")
		return
	}
	httpx.JSON(w, http.StatusCreated, pkg)
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
	pkg, err := h.service.Update(r.Context(), id, Update{
		Name:         req.Nombre,
		Description:  req.Descripcion,
		TotalPrice:   req.PrecioTotal,
		DurationDays: req.DuracionDias,
		StartsAt:     parseOptional(req.FechaInicio),
		EndsAt:       parseOptional(req.FechaFin),
		State:        req.Estado,
		ServiceIDs:   req.ServiciosIDs,
	})
	if err != nil {
		h.fail(w, "update package", err, "Error al actualizar el paquete")
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete package", err, "Error al eliminar el paquete")
		return
	}
	httpx.Message(w, http.StatusOK, "Paquete eliminado correctamente")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, fallback string) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondNotFound(w, err, "Paquete no encontrado", fallback)
}

// parseOptional converts an already validated date.
func parseOptional(value *string) *time.Time {
	if value == nil {
		return nil
	}
	t, err := httpx.ParseISODate(*value)
	if err != nil {
		return nil
	}
	return &t
}
