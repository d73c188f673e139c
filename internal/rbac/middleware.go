package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

const gateName = "authorization"

// AccessChecker answers whether a role currently grants a module.
type AccessChecker interface {
	HasModuleAccess(ctx context.Context, roleName string, module Module) (bool, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Access   AccessChecker
	Logger   *slog.Logger
	Observer shared.GateObserver
	// LookupTimeout bounds the access query. Zero leaves it to the request context.
	LookupTimeout time.Duration
}

// RequireModule admits the request only when the caller's role holds the
// permission named after module. It panics when module is not registered so
// a misnamed route group fails at mount time.
func (m Middleware) RequireModule(module Module) func(http.Handler) http.Handler {
	if !module.Valid() {
		panic(fmt.Sprintf("rbac: unregistered module %q", module))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				m.deny(w, http.StatusUnauthorized, "Usuario no autenticado", shared.OutcomeUnauthenticated)
				return
			}
			if identity.Rol == "" {
				m.deny(w, http.StatusForbidden, "Rol no asignado", shared.OutcomeNoRole)
				return
			}

			ctx := r.Context()
			if m.LookupTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, m.LookupTimeout)
				defer cancel()
			}
			allowed, err := m.Access.HasModuleAccess(ctx, identity.Rol, module)
			if err != nil {
				m.logger().Error("rbac module access lookup",
					slog.String("module", string(module)),
					slog.String("rol", identity.Rol),
					slog.Int64("user_id", identity.ID),
					slog.Any("error", err))
				m.deny(w, http.StatusInternalServerError, "Error interno en autorización", shared.OutcomeError)
				return
			}
			if !allowed {
				m.deny(w, http.StatusForbidden, "Acceso denegado al módulo: "+string(module), shared.OutcomeDenied)
				return
			}
			shared.Observe(m.Observer, gateName, shared.OutcomeAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, status int, message, outcome string) {
	shared.Observe(m.Observer, gateName, outcome)
	httpx.Error(w, status, message)
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}
