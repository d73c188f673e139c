package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/viajes-nova/viajes-api/internal/activities"
	"github.com/viajes-nova/viajes-api/internal/auth"
	"github.com/viajes-nova/viajes-api/internal/itineraries"
	"github.com/viajes-nova/viajes-api/internal/lookup"
	"github.com/viajes-nova/viajes-api/internal/observability"
	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/reservations"
	"github.com/viajes-nova/viajes-api/internal/roles"
	"github.com/viajes-nova/viajes-api/internal/tourpackages"
	"github.com/viajes-nova/viajes-api/internal/travelservices"
	"github.com/viajes-nova/viajes-api/internal/users"
	"github.com/viajes-nova/viajes-api/jobs"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router. Nil
// handlers are not mounted.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Authentication *auth.Middleware

	AuthHandler         *auth.Handler
	RolesHandler        *roles.Handler
	PermissionsHandler  *rbac.PermissionsHandler
	UsersHandler        *users.Handler
	PackagesHandler     *tourpackages.Handler
	ItinerariesHandler  *itineraries.Handler
	ActivitiesHandler   *activities.Handler
	ServicesHandler     *travelservices.Handler
	ReservationsHandler *reservations.Handler
	LookupHandler       *lookup.Handler
	JobHandler          *jobs.Handler

	Health  map[string]HealthCheck
	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(RequestLogger(params.Logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "Ruta no encontrada")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	r.Get("/healthz", healthHandler(params.Logger, params.Health))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil && params.Authentication != nil {
		r.With(params.Authentication.Authenticate).Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.LookupHandler != nil {
			r.Route("/publico", params.LookupHandler.MountRoutes)
		}

		if params.Authentication == nil {
			return
		}
		invalidate := lookupInvalidator(params.LookupHandler)
		r.Group(func(r chi.Router) {
			r.Use(params.Authentication.Authenticate)
			if params.RolesHandler != nil {
				r.With(invalidate(lookup.KindRoles)).Route("/roles", params.RolesHandler.MountRoutes)
			}
			if params.PermissionsHandler != nil {
				r.With(invalidate(lookup.KindPermissions)).Route("/permisos", params.PermissionsHandler.MountRoutes)
			}
			if params.UsersHandler != nil {
				r.Route("/usuarios", params.UsersHandler.MountRoutes)
			}
			if params.PackagesHandler != nil {
				r.With(invalidate(lookup.KindPackages)).Route("/paquetes", params.PackagesHandler.MountRoutes)
			}
			if params.ItinerariesHandler != nil {
				r.Route("/itinerarios", params.ItinerariesHandler.MountRoutes)
			}
			if params.ActivitiesHandler != nil {
				r.With(invalidate(lookup.KindActivities)).Route("/actividades", params.ActivitiesHandler.MountRoutes)
			}
			if params.ServicesHandler != nil {
				r.Route("/servicios", params.ServicesHandler.MountRoutes)
			}
			if params.ReservationsHandler != nil {
				r.Route("/reservas", params.ReservationsHandler.MountRoutes)
			}
		})
	})

	return r
}

// lookupInvalidator drops cached public lists after writes to the resources
// they are built from.
func lookupInvalidator(h *lookup.Handler) func(...lookup.Kind) func(http.Handler) http.Handler {
	return func(kinds ...lookup.Kind) func(http.Handler) http.Handler {
		if h == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return h.InvalidateOn(kinds...)
	}
}

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		body := healthBody{Status: "ok"}
		status := http.StatusOK
		for name, check := range checks {
			if body.Checks == nil {
				body.Checks = make(map[string]string, len(checks))
			}
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", slog.String("check", name), slog.Any("error", err))
				body.Checks[name] = "down"
				body.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			body.Checks[name] = "up"
		}
		httpx.JSON(w, status, body)
	}
}
