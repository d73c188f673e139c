package lookup_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viajes-nova/viajes-api/internal/lookup"
	"github.com/viajes-nova/viajes-api/internal/platform/cache"
	_ "github.com/viajes-nova/viajes-api/testing"
)

type stubSource struct {
	data  map[lookup.Kind][]lookup.Option
	err   error
	calls int
}

func (s *stubSource) Options(_ context.Context, kind lookup.Kind) ([]lookup.Option, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data[kind], nil
}

func newRouter(src lookup.Source, c *cache.JSONCache) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/publico", lookup.NewHandler(nil, src, c).MountRoutes)
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLookupLists(t *testing.T) {
	src := &stubSource{data: map[lookup.Kind][]lookup.Option{
		lookup.KindRoles:    {{ID: 1, Name: "Administrador"}, {ID: 2, Name: "Usuario"}},
		lookup.KindPackages: {{ID: 3, Name: "Cusco Mágico"}},
	}}
	router := newRouter(src, nil)

	rec := get(router, "/api/publico/roles")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"nombre":"Administrador"},{"id":2,"nombre":"Usuario"}]`, rec.Body.String())

	rec = get(router, "/api/publico/paquetes-turisticos")
	assert.JSONEq(t, `[{"id":3,"nombre":"Cusco Mágico"}]`, rec.Body.String())

	rec = get(router, "/api/publico/actividades")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestLookupFailure(t *testing.T) {
	router := newRouter(&stubSource{err: errors.New("connection refused")}, nil)

	rec := get(router, "/api/publico/permisos")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Error interno."}`, rec.Body.String())
}

func TestLookupServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	src := &stubSource{data: map[lookup.Kind][]lookup.Option{lookup.KindPermissions: {{ID: 1, Name: "roles"}}}}
	router := newRouter(src, cache.NewJSONCache(client, 30*time.Second))

	for i := 0; i < 3; i++ {
		rec := get(router, "/api/publico/permisos")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"id":1,"nombre":"roles"}]`, rec.Body.String())
	}
	assert.Equal(t, 1, src.calls)
}

func TestWritesInvalidateCachedList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	src := &stubSource{data: map[lookup.Kind][]lookup.Option{lookup.KindPermissions: {{ID: 1, Name: "roles"}}}}
	h := lookup.NewHandler(nil, src, cache.NewJSONCache(client, time.Minute))
	status := http.StatusCreated
	r := chi.NewRouter()
	r.Route("/api/publico", h.MountRoutes)
	r.With(h.InvalidateOn(lookup.KindPermissions)).Post("/api/permisos", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	post := func() {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/permisos", nil))
		require.Equal(t, status, rec.Code)
	}

	get(r, "/api/publico/permisos")
	key := cache.Key("publico", string(lookup.KindPermissions))
	require.True(t, mr.Exists(key))

	status = http.StatusUnprocessableEntity
	post()
	assert.True(t, mr.Exists(key), "failed write keeps the cached list")

	status = http.StatusCreated
	post()
	assert.False(t, mr.Exists(key))

	src.data[lookup.KindPermissions] = append(src.data[lookup.KindPermissions], lookup.Option{ID: 2, Name: "reservas"})
	rec := get(r, "/api/publico/permisos")
	assert.JSONEq(t, `[{"id":1,"nombre":"roles"},{"id":2,"nombre":"reservas"}]`, rec.Body.String())
	assert.Equal(t, 2, src.calls)
}
