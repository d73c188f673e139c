package reservations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

// IdempotencyHeader carries the client supplied key for POST /reservas.
const IdempotencyHeader = "Idempotency-Key"

// IdempotencyGuard remembers processed request keys.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Handler exposes reservation endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	idem    IdempotencyGuard
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance. idem may be nil, in which case the
// Idempotency-Key header is ignored.
func NewHandler(logger *slog.Logger, service *Service, idem IdempotencyGuard, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, idem: idem, rbac: rbac}
}

// MountRoutes registers reservation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireModule(rbac.ModuleReservas))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type createRequest struct {
	FechaInicio    *string  `json:"fecha_inicio" validate:"required,iso8601"`
	FechaFin       *string  `json:"fecha_fin" validate:"required,iso8601"`
	Estado         *string  `json:"estado" validate:"required"`
	NumeroPersonas *int     `json:"numero_personas" validate:"required,gt=0"`
	PrecioTotal    *float64 `json:"precio_total" validate:"required,gte=0"`
	MetodoPago     *string  `json:"metodo_pago" validate:"required"`
	Comentarios    *string  `json:"comentarios" validate:"required"`
	UsuarioID      *int64   `json:"usuario_id" validate:"required,gt=0"`
	PaqueteID      *int64   `json:"paquete_id" validate:"required,gt=0"`
}

// missing returns the first absent field in the order clients are told
// about them, or "" when every field is present.
func (r createRequest) missing() string {
	fields := []struct {
		name    string
		present bool
	}{
		{"fecha_inicio", r.FechaInicio != nil},
		{"fecha_fin", r.FechaFin != nil},
		{"estado", r.Estado != nil},
		{"numero_personas", r.NumeroPersonas != nil},
		{"precio_total", r.PrecioTotal != nil},
		{"metodo_pago", r.MetodoPago != nil},
		{"comentarios", r.Comentarios != nil},
		{"usuario_id", r.UsuarioID != nil},
		{"paquete_id", r.PaqueteID != nil},
	}
	for _, f := range fields {
		if !f.present {
			return f.name
		}
	}
	return ""
}

type updateRequest struct {
	FechaInicio    *string  `json:"fecha_inicio" validate:"omitempty,iso8601"`
	FechaFin       *string  `json:"fecha_fin" validate:"omitempty,iso8601"`
	Estado         *string  `json:"estado" validate:"omitempty,min=1"`
	NumeroPersonas *int     `json:"numero_personas" validate:"omitempty,gt=0"`
	PrecioTotal    *float64 `json:"precio_total" validate:"omitempty,gte=0"`
	MetodoPago     *string  `json:"metodo_pago" validate:"omitempty,min=1"`
	Comentarios    *string  `json:"comentarios"`
	UsuarioID      *int64   `json:"usuario_id" validate:"omitempty,gt=0"`
	PaqueteID      *int64   `json:"paquete_id" validate:"omitempty,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list reservations", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Error al obtener las reservas")
		return
	}
	if out == nil {
		out = []Reservation{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	res, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get reservation", err, "Error al obtener la reserva")
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Cuerpo JSON inválido")
		return
	}
	if field := req.missing(); field != "" {
		httpx.Error(w, http.StatusUnprocessableEntity, "Falta "+field)
		return
	}
	if issues := httpx.ValidateStruct(req); len(issues) > 0 {
		httpx.ValidationProblem(w, issues)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" && h.idem != nil {
		if err := h.idem.CheckAndInsert(r.Context(), key, rbac.ModuleReservas.String()); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Error(w, http.StatusConflict, "La solicitud ya fue procesada")
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.Error(w, http.StatusInternalServerError, "Error al crear la reserva")
			return
		}
	}

	start, _ := httpx.ParseISODate(*req.FechaInicio)
	end, _ := httpx.ParseISODate(*req.FechaFin)
	res, err := h.service.Create(r.Context(), Input{
		UserID:        *req.UsuarioID,
		PackageID:     *req.PaqueteID,
		StartsAt:      start,
		EndsAt:        end,
		State:         *req.Estado,
		PartySize:     *req.NumeroPersonas,
		TotalPrice:    *req.PrecioTotal,
		PaymentMethod: *req.MetodoPago,
		Comments:      *req.Comentarios,
	})
	if err != nil {
		if key != "" && h.idem != nil {
			if derr := h.idem.Delete(r.Context(), key, rbac.ModuleReservas.String()); derr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		h.fail(w, "create reservation", err, "Error al crear la reserva")
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
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
	res, err := h.service.Update(r.Context(), id, Update{
		UserID:        req.UsuarioID,
		PackageID:     req.PaqueteID,
		StartsAt:      optionalTime(req.FechaInicio),
		EndsAt:        optionalTime(req.FechaFin),
		State:         req.Estado,
		PartySize:     req.NumeroPersonas,
		TotalPrice:    req.PrecioTotal,
		PaymentMethod: req.MetodoPago,
		Comments:      req.Comentarios,
	})
	if err != nil {
		h.fail(w, "update reservation", err, "Error al actualizar la reserva")
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "ID inválido")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete reservation", err, "Error al eliminar la reserva")
		return
	}
	httpx.Message(w, http.StatusOK, "Reserva eliminada correctamente")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, fallback string) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondNotFound(w, err, "Reserva no encontrada", fallback)
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
