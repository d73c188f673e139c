// Package lookup serves the unauthenticated {id, nombre} option lists used
// by registration and catalogue forms.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viajes-nova/viajes-api/internal/platform/cache"
	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
)

// Option is one entry of a lookup list.
type Option struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"nombre"`
}

// Kind names a lookup list.
type Kind string

const (
	KindRoles       Kind = "roles"
	KindPermissions Kind = "permisos"
	KindPackages    Kind = "paquetes-turisticos"
	KindActivities  Kind = "actividades"
)

var queries = map[Kind]string{
	KindRoles:       `SELECT id, name FROM roles ORDER BY id`,
	KindPermissions: `SELECT id, name FROM permissions ORDER BY id`,
	KindPackages:    `SELECT id, name FROM tour_packages ORDER BY id`,
	KindActivities:  `SELECT id, name FROM activities ORDER BY id`,
}

// Source loads a lookup list.
type Source interface {
	Options(ctx context.Context, kind Kind) ([]Option, error)
}

// Repository reads lookup lists from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Options implements Source.
func (r *Repository) Options(ctx context.Context, kind Kind) ([]Option, error) {
	query, ok := queries[kind]
	if !ok {
		return nil, fmt.Errorf("lookup: unknown kind %q", kind)
	}
	var out []Option
	if err := db.Select(ctx, r.pool, &out, query); err != nil {
		return nil, fmt.Errorf("lookup: %s: %w", kind, err)
	}
	return out, nil
}

// Handler exposes the lookup lists. Responses may be served from a short
// lived Redis cache.
type Handler struct {
	logger *slog.Logger
	source Source
	cache  *cache.JSONCache
}

// NewHandler builds Handler instance. cache may be nil.
func NewHandler(logger *slog.Logger, source Source, c *cache.JSONCache) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, source: source, cache: c}
}

// MountRoutes registers lookup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/roles", h.serve(KindRoles))
	r.Get("/permisos", h.serve(KindPermissions))
	r.Get("/paquetes-turisticos", h.serve(KindPackages))
	r.Get("/actividades", h.serve(KindActivities))
}

func (h *Handler) serve(kind Kind) http.HandlerFunc {
	key := cacheKey(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		var out []Option
		err := h.cache.FetchJSON(r.Context(), key, &out, func(ctx context.Context) (any, error) {
			return h.source.Options(ctx, kind)
		})
		if err != nil {
			h.logger.Error("lookup", slog.String("kind", string(kind)), slog.Any("error", err))
			httpx.Error(w, http.StatusInternalServerError, "Error interno.")
			return
		}
		if out == nil {
			out = []Option{}
		}
		httpx.JSON(w, http.StatusOK, out)
	}
}

// InvalidateOn returns middleware that drops the cached lists of kinds after
// a successful write request. Reads and failed writes leave the cache alone.
func (h *Handler) InvalidateOn(kinds ...Kind) func(http.Handler) http.Handler {
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, cacheKey(kind))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if status := ww.Status(); status != 0 && status >= http.StatusBadRequest {
				return
			}
			if err := h.cache.Invalidate(context.WithoutCancel(r.Context()), keys...); err != nil {
				h.logger.Warn("lookup cache invalidate", slog.Any("keys", keys), slog.Any("error", err))
			}
		})
	}
}

func cacheKey(kind Kind) string {
	return cache.Key("publico", string(kind))
}
