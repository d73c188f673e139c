package itineraries_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viajes-nova/viajes-api/internal/itineraries"
	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/shared"
	_ "github.com/viajes-nova/viajes-api/testing"
)

type allowAll struct{}

func (allowAll) HasModuleAccess(context.Context, string, rbac.Module) (bool, error) { return true, nil }

// stubRepo keeps itineraries and the activity links in memory.
type stubRepo struct {
	items    map[int64]itineraries.Itinerary
	links    map[int64]int64 // activity id -> itinerary id
	packages map[int64]string
	nextID   int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		items:    map[int64]itineraries.Itinerary{},
		links:    map[int64]int64{11: 0, 12: 0, 13: 0},
		packages: map[int64]string{1: "Cusco Mágico"},
	}
}

func (s *stubRepo) List(context.Context) ([]itineraries.Itinerary, error) {
	var out []itineraries.Itinerary
	for id := int64(1); id <= s.nextID; id++ {
		if it, ok := s.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubRepo) Get(_ context.Context, id int64) (itineraries.Itinerary, error) {
	it, ok := s.items[id]
	if !ok {
		return itineraries.Itinerary{}, shared.ErrNotFound
	}
	return it, nil
}

func (s *stubRepo) Activities(_ context.Context, ids []int64) (map[int64][]itineraries.Activity, error) {
	out := map[int64][]itineraries.Activity{}
	for _, itID := range ids {
		for actID := int64(11); actID <= 13; actID++ {
			if s.links[actID] == itID {
				out[itID] = append(out[itID], itineraries.Activity{ID: actID, ItineraryID: itID, Name: "actividad"})
			}
		}
	}
	return out, nil
}

func (s *stubRepo) link(id int64, activityIDs []int64) error {
	for _, a := range activityIDs {
		if _, ok := s.links[a]; !ok {
			return shared.BadReference("Alguna actividad especificada no existe")
		}
	}
	for _, a := range activityIDs {
		s.links[a] = id
	}
	return nil
}

func (s *stubRepo) withPackage(it itineraries.Itinerary) (itineraries.Itinerary, error) {
	if it.PackageID == nil {
		return it, nil
	}
	name, ok := s.packages[*it.PackageID]
	if !ok {
		return it, shared.BadReference("El paquete especificado no existe")
	}
	it.PackageName = &name
	return it, nil
}

func (s *stubRepo) Create(_ context.Context, in itineraries.Input) (int64, error) {
	it, err := s.withPackage(itineraries.Itinerary{ID: s.nextID + 1, Day: in.Day, Description: in.Description, PackageID: in.PackageID})
	if err != nil {
		return 0, err
	}
	if err := s.link(it.ID, in.ActivityIDs); err != nil {
		return 0, err
	}
	s.nextID++
	s.items[it.ID] = it
	return it.ID, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, in itineraries.Update) error {
	it, ok := s.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	if in.Day != nil {
		it.Day = *in.Day
	}
	if in.Description != nil {
		it.Description = *in.Description
	}
	if len(in.ActivityIDs) > 0 {
		for a, owner := range s.links {
			if owner == id {
				s.links[a] = 0
			}
		}
		if err := s.link(id, in.ActivityIDs); err != nil {
			return err
		}
	}
	s.items[id] = it
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func newRouter(repo *stubRepo) http.Handler {
	handler := itineraries.NewHandler(nil, itineraries.NewService(repo), rbac.Middleware{Access: allowAll{}})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := &shared.Identity{ID: 1, Email: "admin@viajes.test", Rol: "Administrador"}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithIdentity(req.Context(), id)))
		})
	})
	r.Route("/api/itinerarios", handler.MountRoutes)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) itineraries.Itinerary {
	t.Helper()
	var it itineraries.Itinerary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &it))
	return it
}

func TestCreateItineraryLinksActivities(t *testing.T) {
	router := newRouter(newStubRepo())

	rec := do(router, http.MethodPost, "/api/itinerarios", `{"dia":1,"descripcion":"Llegada","paquete_id":1,"actividades_ids":[11,12]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	it := decode(t, rec)
	assert.Equal(t, 1, it.Day)
	require.NotNil(t, it.Package)
	assert.Equal(t, "Cusco Mágico", it.Package.Name)
	assert.Len(t, it.Activities, 2)
}

func TestCreateItineraryValidation(t *testing.T) {
	router := newRouter(newStubRepo())

	rec := do(router, http.MethodPost, "/api/itinerarios", `{"descripcion":"sin día"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(router, http.MethodPost, "/api/itinerarios", `{"dia":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(router, http.MethodPost, "/api/itinerarios", `{"dia":1,"actividades_ids":[99]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Alguna actividad especificada no existe"}`, rec.Body.String())

	rec = do(router, http.MethodPost, "/api/itinerarios", `{"dia":1,"paquete_id":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateItineraryReplacesActivitiesOnlyWhenGiven(t *testing.T) {
	router := newRouter(newStubRepo())
	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/api/itinerarios", `{"dia":1,"actividades_ids":[11,12]}`).Code)

	rec := do(router, http.MethodPatch, "/api/itinerarios/1", `{"descripcion":"Visita guiada","actividades_ids":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	it := decode(t, rec)
	assert.Equal(t, "Visita guiada", it.Description)
	assert.Len(t, it.Activities, 2)

	rec = do(router, http.MethodPatch, "/api/itinerarios/1", `{"actividades_ids":[13]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	it = decode(t, rec)
	require.Len(t, it.Activities, 1)
	assert.Equal(t, int64(13), it.Activities[0].ID)
}

func TestItineraryNotFound(t *testing.T) {
	router := newRouter(newStubRepo())

	rec := do(router, http.MethodGet, "/api/itinerarios/3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Itinerario no encontrado"}`, rec.Body.String())

	rec = do(router, http.MethodPatch, "/api/itinerarios/3", `{"dia":2}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteItinerary(t *testing.T) {
	router := newRouter(newStubRepo())
	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/api/itinerarios", `{"dia":2}`).Code)

	rec := do(router, http.MethodDelete, "/api/itinerarios/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Itinerario eliminado correctamente"}`, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/itinerarios", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}
