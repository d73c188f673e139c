// Package bootstrap seeds the reference data a fresh database needs before
// the API is usable: one permission per protected module, the two base roles
// and optionally an administrator account.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/viajes-nova/viajes-api/internal/auth"
	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

// AdminRoleName is the role granted every module.
const AdminRoleName = "Administrador"

// customerModules are the modules granted to self-registered users.
var customerModules = []rbac.Module{rbac.ModulePaquetes, rbac.ModuleActividades, rbac.ModuleReservas}

var moduleDescriptions = map[rbac.Module]string{
	rbac.ModuleRoles:       "Gestión de roles",
	rbac.ModulePermisos:    "Gestión de permisos",
	rbac.ModuleUsuarios:    "Gestión de usuarios",
	rbac.ModulePaquetes:    "Paquetes turísticos",
	rbac.ModuleItinerarios: "Itinerarios de paquetes",
	rbac.ModuleActividades: "Actividades de itinerarios",
	rbac.ModuleServicios:   "Servicios de viaje",
	rbac.ModuleReservas:    "Reservas",
}

// PermissionGraph is the subset of rbac.Service the seeder drives.
type PermissionGraph interface {
	EnsurePermission(ctx context.Context, name, description string) (rbac.Permission, error)
	ListRoles(ctx context.Context) ([]rbac.Role, error)
	CreateRole(ctx context.Context, in rbac.RoleInput) (rbac.Role, error)
	Set(ctx context.Context, roleID int64, permissionIDs []int64) error
}

// Admin describes the optional administrator account.
type Admin struct {
	Email    string
	Password string
}

// Result summarises one seeding run.
type Result struct {
	Permissions  int
	RolesCreated []string
	AdminCreated bool
}

// Seeder writes the reference data. Every step is idempotent.
type Seeder struct {
	graph    PermissionGraph
	accounts auth.Repository
	hasher   auth.PasswordHasher
	logger   *slog.Logger
}

// NewSeeder constructs a Seeder.
func NewSeeder(graph PermissionGraph, accounts auth.Repository, hasher auth.PasswordHasher, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{graph: graph, accounts: accounts, hasher: hasher, logger: logger}
}

// Run seeds permissions and roles, then the admin account when admin is non-nil.
// Existing roles have their permission set brought back to the seeded one.
func (s *Seeder) Run(ctx context.Context, admin *Admin) (Result, error) {
	var res Result
	ids := make(map[rbac.Module]int64, len(moduleDescriptions))
	for _, module := range rbac.Modules() {
		perm, err := s.graph.EnsurePermission(ctx, string(module), moduleDescriptions[module])
		if err != nil {
			return res, fmt.Errorf("bootstrap: permission %s: %w", module, err)
		}
		ids[module] = perm.ID
		res.Permissions++
	}

	existing, err := s.graph.ListRoles(ctx)
	if err != nil {
		return res, fmt.Errorf("bootstrap: list roles: %w", err)
	}
	byName := make(map[string]int64, len(existing))
	for _, role := range existing {
		byName[role.Name] = role.ID
	}

	plan := []struct {
		name        string
		description string
		modules     []rbac.Module
	}{
		{AdminRoleName, "Acceso completo a todos los módulos", rbac.Modules()},
		{auth.DefaultRoleName, "Cliente con acceso a paquetes, actividades y reservas", customerModules},
	}
	for _, role := range plan {
		permIDs := make([]int64, 0, len(role.modules))
		for _, m := range role.modules {
			permIDs = append(permIDs, ids[m])
		}
		if id, ok := byName[role.name]; ok {
			if err := s.graph.Set(ctx, id, permIDs); err != nil {
				return res, fmt.Errorf("bootstrap: role %s permissions: %w", role.name, err)
			}
			continue
		}
		if _, err := s.graph.CreateRole(ctx, rbac.RoleInput{
			Name:          role.name,
			Description:   role.description,
			State:         rbac.StateActive,
			PermissionIDs: permIDs,
		}); err != nil {
			return res, fmt.Errorf("bootstrap: role %s: %w", role.name, err)
		}
		res.RolesCreated = append(res.RolesCreated, role.name)
		s.logger.Info("seeded role", slog.String("role", role.name), slog.Int("permissions", len(permIDs)))
	}

	if admin == nil {
		return res, nil
	}
	created, err := s.ensureAdmin(ctx, *admin)
	if err != nil {
		return res, err
	}
	res.AdminCreated = created
	return res, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context, admin Admin) (bool, error) {
	email := strings.TrimSpace(admin.Email)
	if email == "" || admin.Password == "" {
		return false, errors.New("bootstrap: admin email and password are required")
	}
	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		s.logger.Info("admin account already present", slog.String("email", email))
		return false, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return false, fmt.Errorf("bootstrap: find admin: %w", err)
	}
	role, err := s.accounts.RoleByName(ctx, AdminRoleName)
	if err != nil {
		return false, fmt.Errorf("bootstrap: admin role: %w", err)
	}
	digest, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return false, fmt.Errorf("bootstrap: hash admin password: %w", err)
	}
	if _, err := s.accounts.CreateUser(ctx, email, digest, role.ID); err != nil {
		return false, fmt.Errorf("bootstrap: create admin: %w", err)
	}
	s.logger.Info("seeded admin account", slog.String("email", email))
	return true, nil
}
