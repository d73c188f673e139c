package reservations_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viajes-nova/viajes-api/internal/platform/cache"
	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/reservations"
	"github.com/viajes-nova/viajes-api/internal/shared"
	_ "github.com/viajes-nova/viajes-api/testing"
)

type allowAll struct{}

func (allowAll) HasModuleAccess(context.Context, string, rbac.Module) (bool, error) { return true, nil }

type stubRepo struct {
	mu      sync.Mutex
	items   map[int64]reservations.Reservation
	nextID  int64
	creates int
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: map[int64]reservations.Reservation{}}
}

var (
	knownUsers    = map[int64]string{5: "cliente@viajes.test"}
	knownPackages = map[int64]string{2: "Cusco Mágico"}
)

func (s *stubRepo) List(context.Context) ([]reservations.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []reservations.Reservation
	for id := int64(1); id <= s.nextID; id++ {
		if r, ok := s.items[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRepo) Get(_ context.Context, id int64) (reservations.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return reservations.Reservation{}, shared.ErrNotFound
	}
	r.UserEmail = knownUsers[r.UserID]
	r.PackageName = knownPackages[r.PackageID]
	return r, nil
}

func (s *stubRepo) Create(_ context.Context, in reservations.Input) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if _, ok := knownUsers[in.UserID]; !ok {
		return 0, shared.BadReference("El usuario o el paquete especificado no existe")
	}
	if _, ok := knownPackages[in.PackageID]; !ok {
		return 0, shared.BadReference("El usuario o el paquete especificado no existe")
	}
	s.nextID++
	s.items[s.nextID] = reservations.Reservation{
		ID: s.nextID, UserID: in.UserID, PackageID: in.PackageID, StartsAt: in.StartsAt, EndsAt: in.EndsAt,
		State: in.State, PartySize: in.PartySize, TotalPrice: in.TotalPrice, PaymentMethod: in.PaymentMethod, Comments: in.Comments,
	}
	return s.nextID, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, in reservations.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	if in.State != nil {
		r.State = *in.State
	}
	if in.PartySize != nil {
		r.PartySize = *in.PartySize
	}
	if in.PaymentMethod != nil {
		r.PaymentMethod = *in.PaymentMethod
	}
	if in.EndsAt != nil {
		r.EndsAt = *in.EndsAt
	}
	s.items[id] = r
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func newRouter(t *testing.T, repo *stubRepo) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	idem := shared.NewIdempotencyStore(client, cache.KeyPrefix, time.Hour)

	handler := reservations.NewHandler(nil, reservations.NewService(repo, nil, nil), idem, rbac.Middleware{Access: allowAll{}})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := &shared.Identity{ID: 1, Email: "admin@viajes.test", Rol: "Administrador"}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithIdentity(req.Context(), id)))
		})
	})
	r.Route("/api/reservas", handler.MountRoutes)
	return r
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const fullReservation = `{
	"fecha_inicio": "2025-11-13T00:00:00Z",
	"fecha_fin": "2025-11-18T00:00:00Z",
	"estado": "pendiente",
	"numero_personas": 2,
	"precio_total": 2401,
	"metodo_pago": "tarjeta",
	"comentarios": "",
	"usuario_id": 5,
	"paquete_id": 2
}`

func TestCreateReportsFirstMissingField(t *testing.T) {
	router := newRouter(t, newStubRepo())

	cases := []struct {
		body    string
		missing string
	}{
		{`{}`, "fecha_inicio"},
		{`{"usuario_id":5,"fecha_inicio":"2025-11-13T00:00:00Z"}`, "fecha_fin"},
		{`{"fecha_inicio":"2025-11-13T00:00:00Z","fecha_fin":"2025-11-18T00:00:00Z"}`, "estado"},
		{`{"fecha_inicio":"x","fecha_fin":"y","estado":"pendiente","numero_personas":2,"precio_total":1,"metodo_pago":"efectivo"}`, "comentarios"},
		{`{"fecha_inicio":"x","fecha_fin":"y","estado":"pendiente","numero_personas":2,"precio_total":1,"metodo_pago":"efectivo","comentarios":"","usuario_id":5}`, "paquete_id"},
	}
	for _, tc := range cases {
		rec := do(router, http.MethodPost, "/api/reservas", tc.body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, tc.body)
		assert.JSONEq(t, `{"error":"Falta `+tc.missing+`"}`, rec.Body.String(), tc.body)
	}
}

func TestCreateValidatesFormats(t *testing.T) {
	router := newRouter(t, newStubRepo())

	body := strings.Replace(fullReservation, `"2025-11-13T00:00:00Z"`, `"2025-11-13"`, 1)
	rec := do(router, http.MethodPost, "/api/reservas", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Validation error"`)

	body = strings.Replace(fullReservation, `"numero_personas": 2`, `"numero_personas": 0`, 1)
	rec = do(router, http.MethodPost, "/api/reservas", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateReservation(t *testing.T) {
	router := newRouter(t, newStubRepo())

	rec := do(router, http.MethodPost, "/api/reservas", fullReservation)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res reservations.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.PartySize)
	require.NotNil(t, res.User)
	assert.Equal(t, "cliente@viajes.test", res.User.Email)
	require.NotNil(t, res.Package)
	assert.Equal(t, "Cusco Mágico", res.Package.Name)
}

func TestCreateUnknownReference(t *testing.T) {
	router := newRouter(t, newStubRepo())

	body := strings.Replace(fullReservation, `"usuario_id": 5`, `"usuario_id": 99`, 1)
	rec := do(router, http.MethodPost, "/api/reservas", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdempotencyKeyReplay(t *testing.T) {
	repo := newStubRepo()
	router := newRouter(t, repo)

	rec := do(router, http.MethodPost, "/api/reservas", fullReservation, reservations.IdempotencyHeader, "abc-123")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(router, http.MethodPost, "/api/reservas", fullReservation, reservations.IdempotencyHeader, "abc-123")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, repo.creates)

	rec = do(router, http.MethodPost, "/api/reservas", fullReservation, reservations.IdempotencyHeader, "other")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestFailedCreateReleasesIdempotencyKey(t *testing.T) {
	repo := newStubRepo()
	router := newRouter(t, repo)

	bad := strings.Replace(fullReservation, `"paquete_id": 2`, `"paquete_id": 8`, 1)
	rec := do(router, http.MethodPost, "/api/reservas", bad, reservations.IdempotencyHeader, "retry-me")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/api/reservas", fullReservation, reservations.IdempotencyHeader, "retry-me")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestUpdateAppliesEveryField(t *testing.T) {
	router := newRouter(t, newStubRepo())
	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/api/reservas", fullReservation).Code)

	rec := do(router, http.MethodPatch, "/api/reservas/1", `{"numero_personas":4,"metodo_pago":"transferencia","estado":"confirmada"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res reservations.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 4, res.PartySize)
	assert.Equal(t, "transferencia", res.PaymentMethod)
	assert.Equal(t, "confirmada", res.State)

	rec = do(router, http.MethodPatch, "/api/reservas/1", `{"fecha_fin":"2025-11-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReservationNotFoundAndDelete(t *testing.T) {
	router := newRouter(t, newStubRepo())

	rec := do(router, http.MethodGet, "/api/reservas/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Reserva no encontrada"}`, rec.Body.String())

	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/api/reservas", fullReservation).Code)
	rec = do(router, http.MethodDelete, "/api/reservas/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Reserva eliminada correctamente"}`, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/reservas", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}
