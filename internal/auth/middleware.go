package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

const gateName = "authentication"

// Middleware turns a bearer token into a request identity.
type Middleware struct {
	Tokens   *TokenCodec
	Logger   *slog.Logger
	Observer shared.GateObserver
}

// NewMiddleware constructs the authentication gate.
func NewMiddleware(tokens *TokenCodec, logger *slog.Logger, observer shared.GateObserver) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{Tokens: tokens, Logger: logger, Observer: observer}
}

// Authenticate rejects requests without a valid token and attaches the
// identity carried by the token otherwise.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			m.deny(w, http.StatusUnauthorized, "Token no proporcionado", shared.OutcomeUnauthenticated)
			return
		}
		// The scheme word is not interpreted; only the shape is.
		parts := strings.Split(header, " ")
		if len(parts) != 2 {
			m.deny(w, http.StatusUnauthorized, "Formato de token inválido", shared.OutcomeMalformed)
			return
		}
		if !m.Tokens.Configured() {
			m.logger().Error("token signing secret is not configured", slog.String("path", r.URL.Path))
			m.deny(w, http.StatusInternalServerError, "Error interno en el servidor.", shared.OutcomeMisconfigured)
			return
		}

		claims, err := m.Tokens.Verify(parts[1])
		if err != nil {
			if errors.Is(err, shared.ErrServerMisconfigured) {
				m.logger().Error("token verification misconfigured", slog.Any("error", err))
				m.deny(w, http.StatusInternalServerError, "Error interno en el servidor.", shared.OutcomeMisconfigured)
				return
			}
			m.deny(w, http.StatusForbidden, "Token inválido o expirado", shared.OutcomeInvalid)
			return
		}
		identity, ok := claims.Identity()
		if !ok {
			m.logger().Debug("token without complete identity claims")
			m.deny(w, http.StatusForbidden, "Token inválido o expirado", shared.OutcomeInvalid)
			return
		}

		shared.Observe(m.Observer, gateName, shared.OutcomeAllowed)
		ctx := shared.ContextWithIdentity(r.Context(), &identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) deny(w http.ResponseWriter, status int, message, outcome string) {
	shared.Observe(m.Observer, gateName, outcome)
	httpx.Error(w, status, message)
}

func (m *Middleware) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}
