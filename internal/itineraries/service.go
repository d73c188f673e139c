package itineraries

import (
	"context"
	"strings"
)

// RepositoryPort defines data access methods for itineraries.
type RepositoryPort interface {
	List(ctx context.Context) ([]Itinerary, error)
	Get(ctx context.Context, id int64) (Itinerary, error)
	Activities(ctx context.Context, itineraryIDs []int64) (map[int64][]Activity, error)
	Create(ctx context.Context, in Input) (int64, error)
	Update(ctx context.Context, id int64, in Update) error
	Delete(ctx context.Context, id int64) error
}

// Service handles itinerary business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns every itinerary with its package and activities.
func (s *Service) List(ctx context.Context) ([]Itinerary, error) {
	its, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.attachActivities(ctx, its); err != nil {
		return nil, err
	}
	return its, nil
}

// Get returns one itinerary with its package and activities.
func (s *Service) Get(ctx context.Context, id int64) (Itinerary, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return Itinerary{}, err
	}
	its := []Itinerary{it}
	if err := s.attachActivities(ctx, its); err != nil {
		return Itinerary{}, err
	}
	return its[0], nil
}

// Create stores an itinerary and links the given activities to it.
func (s *Service) Create(ctx context.Context, in Input) (Itinerary, error) {
	in.Description = strings.TrimSpace(in.Description)
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return Itinerary{}, err
	}
	return s.Get(ctx, id)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, in Update) (Itinerary, error) {
	if err := s.repo.Update(ctx, id, in); err != nil {
		return Itinerary{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes an itinerary.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) attachActivities(ctx context.Context, its []Itinerary) error {
	if len(its) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(its))
	for _, it := range its {
		ids = append(ids, it.ID)
	}
	acts, err := s.repo.Activities(ctx, ids)
	if err != nil {
		return err
	}
	for i := range its {
		if its[i].PackageID != nil && its[i].PackageName != nil {
			its[i].Package = &PackageRef{ID: *its[i].PackageID, Name: *its[i].PackageName}
		}
		its[i].Activities = acts[its[i].ID]
		if its[i].Activities == nil {
			its[i].Activities = []Activity{}
		}
	}
	return nil
}
