package users_test

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
	"golang.org/x/crypto/bcrypt"

	"github.com/viajes-nova/viajes-api/internal/auth"
	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/shared"
	"github.com/viajes-nova/viajes-api/internal/users"
	_ "github.com/viajes-nova/viajes-api/testing"
)

type allowAll struct{}

func (allowAll) HasModuleAccess(context.Context, string, rbac.Module) (bool, error) { return true, nil }

var roleNames = map[int64]string{1: "Administrador", 2: "Usuario"}

type stubRepo struct {
	users  map[int64]users.User
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[int64]users.User{}}
}

func (s *stubRepo) ListUsers(context.Context) ([]users.User, error) {
	out := make([]users.User, 0, len(s.users))
	for id := int64(1); id <= s.nextID; id++ {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubRepo) GetUser(_ context.Context, id int64) (users.User, error) {
	u, ok := s.users[id]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) CreateUser(_ context.Context, email, hash string, roleID int64) (users.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return users.User{}, shared.ErrDuplicate
		}
	}
	name, ok := roleNames[roleID]
	if !ok {
		return users.User{}, shared.BadReference("El rol especificado no existe")
	}
	s.nextID++
	u := users.User{ID: s.nextID, Email: email, PasswordHash: hash, RoleID: roleID, RoleName: &name}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubRepo) UpdateUser(_ context.Context, id int64, hash *string, roleID *int64) (users.User, error) {
	u, ok := s.users[id]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	if hash != nil {
		u.PasswordHash = *hash
	}
	if roleID != nil {
		name := roleNames[*roleID]
		u.RoleID, u.RoleName = *roleID, &name
	}
	s.users[id] = u
	return u, nil
}

func (s *stubRepo) DeleteUser(_ context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func newRouter(repo *stubRepo) http.Handler {
	svc := users.NewService(repo, auth.NewBcryptHasher(bcrypt.MinCost), nil, nil)
	handler := users.NewHandler(nil, svc, rbac.Middleware{Access: allowAll{}})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := &shared.Identity{ID: 1, Email: "admin@viajes.test", Rol: "Administrador"}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithIdentity(req.Context(), id)))
		})
	})
	r.Route("/api/usuarios", handler.MountRoutes)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newStubRepo()
	router := newRouter(repo)

	rec := do(router, http.MethodPost, "/api/usuarios", `{"email":"Guia@Viajes.test","contrasena":"secreto1","rol_id":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secreto1")
	assert.NotContains(t, rec.Body.String(), "password")

	var out users.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Guia@Viajes.test", out.Email)
	require.NotNil(t, out.Rol)
	assert.Equal(t, users.RoleRef{ID: 2, Nombre: "Usuario"}, *out.Rol)

	stored := repo.users[out.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secreto1")))

	rec = do(router, http.MethodPost, "/api/usuarios", `{"email":"Guia@Viajes.test","contrasena":"secreto1","rol_id":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, repo.users, 1)
}

func TestCreateUserEmailIsCaseSensitive(t *testing.T) {
	repo := newStubRepo()
	router := newRouter(repo)

	rec := do(router, http.MethodPost, "/api/usuarios", `{"email":"Guia@Viajes.test","contrasena":"secreto1","rol_id":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(router, http.MethodPost, "/api/usuarios", `{"email":"guia@viajes.test","contrasena":"secreto1","rol_id":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, repo.users, 2)
}

func TestCreateUserUnknownRole(t *testing.T) {
	router := newRouter(newStubRepo())

	rec := do(router, http.MethodPost, "/api/usuarios", `{"email":"a@viajes.test","contrasena":"secreto1","rol_id":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"El rol especificado no existe"}`, rec.Body.String())
}

func TestUpdateUserRehashesAndReassigns(t *testing.T) {
	repo := newStubRepo()
	router := newRouter(repo)
	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/api/usuarios", `{"email":"a@viajes.test","contrasena":"secreto1","rol_id":2}`).Code)
	before := repo.users[1].PasswordHash

	rec := do(router, http.MethodPatch, "/api/usuarios/1", `{"contrasena":"secreto2","rol_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"nombre":"Administrador"`)
	assert.NotEqual(t, before, repo.users[1].PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[1].PasswordHash), []byte("secreto2")))

	rec = do(router, http.MethodPatch, "/api/usuarios/1", `{"rol_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[1].PasswordHash), []byte("secreto2")))
}

func TestDeleteUser(t *testing.T) {
	repo := newStubRepo()
	router := newRouter(repo)
	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/api/usuarios", `{"email":"a@viajes.test","contrasena":"secreto1","rol_id":2}`).Code)

	assert.Equal(t, http.StatusOK, do(router, http.MethodDelete, "/api/usuarios/1", "").Code)
	rec := do(router, http.MethodDelete, "/api/usuarios/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Usuario no encontrado"}`, rec.Body.String())
}

func TestListUsers(t *testing.T) {
	repo := newStubRepo()
	router := newRouter(repo)
	rec := do(router, http.MethodGet, "/api/usuarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
