package travelservices

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/viajes-nova/viajes-api/internal/shared"
)

// RepositoryPort defines data access methods for services.
type RepositoryPort interface {
	List(ctx context.Context) ([]Service, error)
	Get(ctx context.Context, id int64) (Service, error)
	Packages(ctx context.Context, serviceIDs []int64) (map[int64][]PackageRef, error)
	Create(ctx context.Context, in Input) (int64, error)
	Update(ctx context.Context, id int64, in Update) error
	Delete(ctx context.Context, id int64) error
}

// Catalog handles service business logic. Price changes are audited.
type Catalog struct {
	repo   RepositoryPort
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewCatalog builds Catalog instance.
func NewCatalog(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Catalog {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{repo: repo, audit: audit, logger: logger}
}

// List returns every service with the packages bundling it.
func (c *Catalog) List(ctx context.Context) ([]Service, error) {
	out, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return out, c.attachPackages(ctx, out)
}

// Get returns one service with the packages bundling it.
func (c *Catalog) Get(ctx context.Context, id int64) (Service, error) {
	svc, err := c.repo.Get(ctx, id)
	if err != nil {
		return Service{}, err
	}
	out := []Service{svc}
	if err := c.attachPackages(ctx, out); err != nil {
		return Service{}, err
	}
	return out[0], nil
}

// Create stores a service and links it to the given packages.
func (c *Catalog) Create(ctx context.Context, in Input) (Service, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Kind = strings.TrimSpace(in.Kind)
	if in.Name == "" {
		return Service{}, shared.Invalid("Falta nombre")
	}
	if in.Price < 0 {
		return Service{}, shared.Invalid("El precio no puede ser negativo")
	}
	id, err := c.repo.Create(ctx, in)
	if err != nil {
		return Service{}, err
	}
	c.record(ctx, "service.created", id, map[string]any{"precio": in.Price, "paquetes": in.PackageIDs})
	return c.Get(ctx, id)
}

// Update applies a partial update.
func (c *Catalog) Update(ctx context.Context, id int64, in Update) (Service, error) {
	if in.Price != nil && *in.Price < 0 {
		return Service{}, shared.Invalid("El precio no puede ser negativo")
	}
	if err := c.repo.Update(ctx, id, in); err != nil {
		return Service{}, err
	}
	meta := map[string]any{}
	if in.Price != nil {
		meta["precio"] = *in.Price
	}
	if in.PackageIDs != nil {
		meta["paquetes"] = *in.PackageIDs
	}
	c.record(ctx, "service.updated", id, meta)
	return c.Get(ctx, id)
}

// Delete removes a service.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.record(ctx, "service.deleted", id, nil)
	return nil
}

func (c *Catalog) attachPackages(ctx context.Context, services []Service) error {
	if len(services) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(services))
	for _, s := range services {
		ids = append(ids, s.ID)
	}
	links, err := c.repo.Packages(ctx, ids)
	if err != nil {
		return err
	}
	for i := range services {
		services[i].Packages = links[services[i].ID]
		if services[i].Packages == nil {
			services[i].Packages = []PackageRef{}
		}
	}
	return nil
}

// record is best effort; the mutation has already committed.
func (c *Catalog) record(ctx context.Context, action string, id int64, meta map[string]any) {
	err := c.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "service",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		c.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
