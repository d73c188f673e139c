package auth_test

import (
	"context"
	"sync"

	"github.com/viajes-nova/viajes-api/internal/auth"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

type stubRepo struct {
	mu     sync.Mutex
	users  map[string]*auth.User
	roles  map[string]*auth.Role
	nextID int64
	err    error
}

func newStubRepo(roles ...string) *stubRepo {
	repo := &stubRepo{users: map[string]*auth.User{}, roles: map[string]*auth.Role{}}
	for i, name := range roles {
		repo.roles[name] = &auth.Role{ID: int64(i + 1), Name: name}
	}
	return repo
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubRepo) RoleByName(_ context.Context, name string) (*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return role, nil
}

func (s *stubRepo) CreateUser(_ context.Context, email, hash string, roleID int64) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return nil, shared.ErrDuplicate
	}
	s.nextID++
	user := &auth.User{ID: s.nextID, Email: email, PasswordHash: hash, RoleID: roleID}
	for _, role := range s.roles {
		if role.ID == roleID {
			name := role.Name
			user.RoleName = &name
		}
	}
	s.users[email] = user
	return user, nil
}

func (s *stubRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
