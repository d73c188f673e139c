package activities

import (
	"context"
	"strings"
	"time"

	"github.com/viajes-nova/viajes-api/internal/shared"
)

// ErrUnknownItinerary is returned when the referenced itinerary does not exist.
var ErrUnknownItinerary = shared.BadReference("El itinerario especificado no existe")

type RepositoryPort interface {
	List(ctx context.Context) ([]Activity, error)
	ListByItinerary(ctx context.Context, itineraryID int64) ([]Activity, error)
	Get(ctx context.Context, id int64) (Activity, error)
	ItineraryExists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, in Input) (int64, error)
	Update(ctx context.Context, id int64, in Update) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Activity, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return resolveAll(out), nil
}

// ListByItinerary returns the activities of one itinerary. An unknown
// itinerary yields an empty list.
func (s *Service) ListByItinerary(ctx context.Context, itineraryID int64) ([]Activity, error) {
	out, err := s.repo.ListByItinerary(ctx, itineraryID)
	if err != nil {
		return nil, err
	}
	return resolveAll(out), nil
}

func (s *Service) Get(ctx context.Context, id int64) (Activity, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	a.resolve()
	return a, nil
}

// Create checks the itinerary first so the caller gets a 400 instead of a
// constraint failure.
func (s *Service) Create(ctx context.Context, in Input) (Activity, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Activity{}, shared.Invalid("Falta nombre")
	}
	if err := checkWindow(in.StartsAt, in.EndsAt); err != nil {
		return Activity{}, err
	}
	ok, err := s.repo.ItineraryExists(ctx, in.ItineraryID)
	if err != nil {
		return Activity{}, err
	}
	if !ok {
		return Activity{}, ErrUnknownItinerary
	}
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return Activity{}, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, in Update) (Activity, error) {
	if err := checkWindow(in.StartsAt, in.EndsAt); err != nil {
		return Activity{}, err
	}
	if in.ItineraryID != nil {
		ok, err := s.repo.ItineraryExists(ctx, *in.ItineraryID)
		if err != nil {
			return Activity{}, err
		}
		if !ok {
			return Activity{}, ErrUnknownItinerary
		}
	}
	if err := s.repo.Update(ctx, id, in); err != nil {
		return Activity{}, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func checkWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return shared.Invalid("hora_fin debe ser posterior a hora_inicio")
	}
	return nil
}

func resolveAll(in []Activity) []Activity {
	for i := range in {
		in[i].resolve()
	}
	return in
}
