package itineraries

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/rbac"
)

// Handler exposes itinerary endpoints.
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

// MountRoutes registers itinerary routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireModule(rbac.ModuleItinerarios))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type createRequest struct {
	Dia            *int    `json:"dia" validate:"required,gte=1"`
	Descripcion    string  `json:"descripcion"`
	PaqueteID      *int64  `json:"paquete_id" validate:"omitempty,gt=0"`
	ActividadesIDs []int64 `json:"actividades_ids" validate:"omitempty,dive,gt=0"`
}

type updateRequest struct {
	Dia            *int    `json:"dia" validate:"omitempty,gte=1"`
	Descripcion    *string `json:"descripcion"`
	PaqueteID      *int64  `json:"paquete_id" validate:"omitempty,gt=0"`
	ActividadesIDs []int64 `json:"actividades_ids" validate:"omitempty,dive,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	its, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list itineraries", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	if its == nil {
		its = []Itinerary{}
	}
	httpx.JSON(w, http.StatusOK, its)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	it, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get itinerary", err, "Error interno del servidor")
		return
	}
	httpx.JSON(w, http.StatusOK, it)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpx.Bind(w, r, &req) {
		return
	}
	it, err := h.service.Create(r.Context(), Input{
		Day:         *req.Dia,
		Description: req.Descripcion,
		PackageID:   req.PaqueteID,
		ActivityIDs: req.ActividadesIDs,
	})
	if err != nil {
		h.fail(w, "create itinerary", err, "Error al crear itinerario")
		return
	}
	httpx.JSON(w, http.StatusCreated, it)
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
	it, err := h.service.Update(r.Context(), id, Update{
		Day:         req.Dia,
		Description: req.Descripcion,
		PackageID:   req.PaqueteID,
		ActivityIDs: req.ActividadesIDs,
	})
	if err != nil {
		h.fail(w, "update itinerary", err, "Error al actualizar itinerario")
		return
	}
	httpx.JSON(w, http.StatusOK, it)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete itinerary", err, "Error al eliminar itinerario")
		return
	}
	httpx.Message(w, http.StatusOK, "Itinerario eliminado correctamente")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, fallback string) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondNotFound(w, err, "Itinerario no encontrado", fallback)
}
