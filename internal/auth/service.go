package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/viajes-nova/viajes-api/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	tokens *TokenCodec

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs a new Service.
func NewService(repo Repository, hasher PasswordHasher, tokens *TokenCodec) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens}
}

// Register creates an identity holding the default role.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, shared.ErrDuplicate
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	role, err := s.repo.RoleByName(ctx, DefaultRoleName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", shared.ErrRoleMissing, DefaultRoleName)
		}
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, email, digest, role.ID)
}

// Login validates credentials and issues a token snapshotting the role name.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.hasher.Verify(password, s.placeholderHash())
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}
	if user.RoleName == nil || *user.RoleName == "" {
		return nil, shared.ErrRoleMissing
	}
	token, err := s.tokens.Issue(shared.Identity{ID: user.ID, Email: user.Email, Rol: *user.RoleName})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

// placeholderHash keeps unknown-email logins as slow as wrong-password ones.
func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("viajes-placeholder")
	})
	return s.dummyHash
}

// normalizeEmail only trims; identities match case-sensitively.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
