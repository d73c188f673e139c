package activities

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/rbac"
)

// Handler exposes activity endpoints.
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

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireModule(rbac.ModuleActividades))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/itinerario/{itinerarioID}", h.listByItinerary)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type createRequest struct {
	Nombre       string  `json:"nombre" validate:"required"`
	Descripcion  *string `json:"descripcion"`
	HoraInicio   *string `json:"hora_inicio" validate:"omitempty,iso8601"`
	HoraFin      *string `json:"hora_fin" validate:"omitempty,iso8601"`
	ItinerarioID *int64  `json:"itinerario_id" validate:"required,gt=0"`
}

type updateRequest struct {
	Nombre       *string `json:"nombre" validate:"omitempty,min=1"`
	Descripcion  *string `json:"descripcion"`
	HoraInicio   *string `json:"hora_inicio" validate:"omitempty,iso8601"`
	HoraFin      *string `json:"hora_fin" validate:"omitempty,iso8601"`
	ItinerarioID *int64  `json:"itinerario_id" validate:"omitempty,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	h.respondList(w, "list activities", out, err)
}

func (h *Handler) listByItinerary(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "itinerarioID")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	out, err := h.service.ListByItinerary(r.Context(), id)
	h.respondList(w, "list itinerary activities", out, err)
}

func (h *Handler) respondList(w http.ResponseWriter, op string, out []Activity, err error) {
	if err != nil {
		h.logger.Error(op, slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	if out == nil {
		out = []Activity{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get activity", err, "Error interno del servidor")
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	a, err := h.service.Create(r.Context(), Input{
		Name:        req.Nombre,
		Description: req.Descripcion,
		StartsAt:    optionalTime(req.HoraInicio),
		EndsAt:      optionalTime(req.HoraFin),
		ItineraryID: *req.ItinerarioID,
	})
	if err != nil {
		h.fail(w, "create activity", err, "Error al crear actividad")
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
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
	a, err := h.service.Update(r.Context(), id, Update{
		Name:        req.Nombre,
		Description: req.Descripcion,
		StartsAt:    optionalTime(req.HoraInicio),
		EndsAt:      optionalTime(req.HoraFin),
		ItineraryID: req.ItinerarioID,
	})
	if err != nil {
		h.fail(w, "update activity", err, "Error al actualizar actividad")
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete activity", err, "Error al eliminar actividad")
		return
	}
	httpx.Message(w, http.StatusOK, "Actividad eliminada correctamente")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, fallback string) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondNotFound(w, err, "Actividad no encontrada", fallback)
}

func optionalTime(value *string) *time.Time {
	if value == nil {
		return nil
	}
	t, err := httpx.ParseISODate(*value)
	if err != nil {
		return nil
	}
	return &t
}
