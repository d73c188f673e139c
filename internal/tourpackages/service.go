package tourpackages

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/viajes-nova/viajes-api/internal/shared"
)

// DefaultState is assigned to packages created without a state.
const DefaultState = "activo"

// RepositoryPort defines data access methods for packages.
type RepositoryPort interface {
	List(ctx context.Context) ([]Package, error)
	Get(ctx context.Context, id int64) (Package, error)
	Itineraries(ctx context.Context, packageIDs []int64) (map[int64][]Itinerary, error)
	Services(ctx context.Context, packageIDs []int64) (map[int64][]LinkedService, error)
	Create(ctx context.Context, in Input) (int64, error)
	Update(ctx context.Context, id int64, in Update) error
	Delete(ctx context.Context, id int64) error
}

// Service handles package business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns every package with its itineraries and services.
func (s *Service) List(ctx context.Context) ([]Package, error) {
	pkgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.loadRelations(ctx, pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// Get returns one package with its itineraries and services.
func (s *Service) Get(ctx context.Context, id int64) (Package, error) {
	pkg, err := s.repo.Get(ctx, id)
	if err != nil {
		return Package{}, err
	}
	pkgs := []Package{pkg}
	if err := s.loadRelations(ctx, pkgs); err != nil {
		return Package{}, err
	}
	return pkgs[0], nil
}

// Create validates and stores a package.
func (s *Service) Create(ctx context.Context, in Input) (Package, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Package{}, shared.Invalid("Falta nombre")
	}
	if in.EndsAt.Before(in.StartsAt) {
		return Package{}, shared.Invalid("fecha_fin debe ser posterior a fecha_inicio")
	}
	if in.State == "" {
		in.State = DefaultState
	}
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return Package{}, err
	}
	return s.Get(ctx, id)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, in Update) (Package, error) {
	if in.StartsAt != nil || in.EndsAt != nil {
		current, err := s.repo.Get(ctx, id)
		if err != nil {
			return Package{}, err
		}
		start, end := current.StartsAt, current.EndsAt
		if in.StartsAt != nil {
			start = *in.StartsAt
		}
		if in.EndsAt != nil {
			end = *in.EndsAt
		}
		if end.Before(start) {
			return Package{}, shared.Invalid("fecha_fin debe ser posterior a fecha_inicio")
		}
	}
	if err := s.repo.Update(ctx, id, in); err != nil {
		return Package{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes a package.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// loadRelations fetches itineraries and services concurrently.
func (s *Service) loadRelations(ctx context.Context, pkgs []Package) error {
	if len(pkgs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(pkgs))
	for _, p := range pkgs {
		ids = append(ids, p.ID)
	}

	var (
		itineraries map[int64][]Itinerary
		services    map[int64][]LinkedService
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		itineraries, err = s.repo.Itineraries(ctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		services, err = s.repo.Services(ctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range pkgs {
		pkgs[i].Itineraries = itineraries[pkgs[i].ID]
		if pkgs[i].Itineraries == nil {
			pkgs[i].Itineraries = []Itinerary{}
		}
		pkgs[i].Services = services[pkgs[i].ID]
		if pkgs[i].Services == nil {
			pkgs[i].Services = []LinkedService{}
		}
	}
	return nil
}
