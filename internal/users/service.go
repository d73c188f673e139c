package users

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/viajes-nova/viajes-api/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, email, passwordHash string, roleID int64) (User, error)
	UpdateUser(ctx context.Context, id int64, passwordHash *string, roleID *int64) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// PasswordHasher hashes plaintext credentials.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// Service handles user business logic.
type Service struct {
	repo   RepositoryPort
	hasher PasswordHasher
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, hasher PasswordHasher, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, audit: audit, logger: logger}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser hashes the password and stores the user.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (User, error) {
	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, strings.TrimSpace(in.Email), digest, in.RoleID)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.created", user.ID, map[string]any{"rol_id": user.RoleID})
	return user, nil
}

// UpdateUser re-hashes a new password and reassigns the role when given.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateInput) (User, error) {
	var digest *string
	if in.Password != nil {
		hashed, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return User{}, err
		}
		digest = &hashed
	}
	user, err := s.repo.UpdateUser(ctx, id, digest, in.RoleID)
	if err != nil {
		return User{}, err
	}
	meta := map[string]any{"password_changed": in.Password != nil}
	if in.RoleID != nil {
		meta["rol_id"] = *in.RoleID
	}
	s.record(ctx, "user.updated", id, meta)
	return user, nil
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "user.deleted", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit user", slog.String("action", action), slog.Any("error", err))
	}
}
