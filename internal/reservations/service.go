package reservations

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/viajes-nova/viajes-api/internal/shared"
)

// RepositoryPort defines data access methods for reservations.
type RepositoryPort interface {
	List(ctx context.Context) ([]Reservation, error)
	Get(ctx context.Context, id int64) (Reservation, error)
	Create(ctx context.Context, in Input) (int64, error)
	Update(ctx context.Context, id int64, in Update) error
	Delete(ctx context.Context, id int64) error
}

// Service handles reservation business logic.
type Service struct {
	repo   RepositoryPort
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns all reservations.
func (s *Service) List(ctx context.Context) ([]Reservation, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].resolve()
	}
	return out, nil
}

// Get returns a reservation by id.
func (s *Service) Get(ctx context.Context, id int64) (Reservation, error) {
	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return Reservation{}, err
	}
	res.resolve()
	return res, nil
}

// Create stores a reservation.
func (s *Service) Create(ctx context.Context, in Input) (Reservation, error) {
	in.State = strings.TrimSpace(in.State)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if err := checkDates(in.StartsAt, in.EndsAt); err != nil {
		return Reservation{}, err
	}
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return Reservation{}, err
	}
	s.record(ctx, "reservation.created", id, map[string]any{
		"usuario_id": in.UserID,
		"paquete_id": in.PackageID,
		"personas":   in.PartySize,
	})
	return s.Get(ctx, id)
}

// Update applies every field present in the request.
func (s *Service) Update(ctx context.Context, id int64, in Update) (Reservation, error) {
	if in.StartsAt != nil || in.EndsAt != nil {
		current, err := s.repo.Get(ctx, id)
		if err != nil {
			return Reservation{}, err
		}
		start, end := current.StartsAt, current.EndsAt
		if in.StartsAt != nil {
			start = *in.StartsAt
		}
		if in.EndsAt != nil {
			end = *in.EndsAt
		}
		if err := checkDates(start, end); err != nil {
			return Reservation{}, err
		}
	}
	if err := s.repo.Update(ctx, id, in); err != nil {
		return Reservation{}, err
	}
	meta := map[string]any{}
	if in.State != nil {
		meta["estado"] = *in.State
	}
	s.record(ctx, "reservation.updated", id, meta)
	return s.Get(ctx, id)
}

// Delete removes a reservation.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "reservation.deleted", id, nil)
	return nil
}

func checkDates(start, end time.Time) error {
	if end.Before(start) {
		return shared.Invalid("fecha_fin debe ser posterior a fecha_inicio")
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "reservation",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit reservation", slog.String("action", action), slog.Any("error", err))
	}
}
