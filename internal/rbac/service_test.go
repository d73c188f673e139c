package rbac_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

func permNames(perms []rbac.Permission) []string {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	return names
}

func TestAttachIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)
	ctx := context.Background()
	roles := repo.addPermission("roles")
	admin := repo.addRole("Administrador")

	require.NoError(t, svc.Attach(ctx, admin, roles))
	require.NoError(t, svc.Attach(ctx, admin, roles))

	assert.Equal(t, 1, repo.linkCount(admin))
	ok, err := svc.HasModuleAccess(ctx, "Administrador", rbac.ModuleRoles)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAttachUnknownReferences(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)
	ctx := context.Background()
	perm := repo.addPermission("roles")
	role := repo.addRole("Administrador")

	assert.ErrorIs(t, svc.Attach(ctx, 99, perm), shared.ErrNotFound)
	assert.ErrorIs(t, svc.Attach(ctx, role, 99), shared.ErrNotFound)
	assert.Zero(t, repo.linkCount(role))
}

func TestDetachAbsentIsNoop(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)
	ctx := context.Background()
	roles := repo.addPermission("roles")
	permisos := repo.addPermission("permisos")
	admin := repo.addRole("Administrador", roles)

	require.NoError(t, svc.Detach(ctx, admin, permisos))
	assert.Equal(t, 1, repo.linkCount(admin))

	require.NoError(t, svc.Detach(ctx, admin, roles))
	require.NoError(t, svc.Detach(ctx, admin, roles))
	assert.Zero(t, repo.linkCount(admin))
}

func TestSetReplacesMembership(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)
	ctx := context.Background()
	roles := repo.addPermission("roles")
	permisos := repo.addPermission("permisos")
	usuarios := repo.addPermission("usuarios")
	admin := repo.addRole("Administrador", roles, permisos)

	require.NoError(t, svc.Set(ctx, admin, []int64{usuarios, usuarios, roles}))

	perms, err := svc.RolePermissions(ctx, admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"usuarios", "roles"}, permNames(perms))
}

func TestSetIsAllOrNothing(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)
	ctx := context.Background()
	roles := repo.addPermission("roles")
	permisos := repo.addPermission("permisos")
	admin := repo.addRole("Administrador", roles, permisos)

	err := svc.Set(ctx, admin, []int64{roles, 404})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	perms, err := svc.RolePermissions(ctx, admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"roles", "permisos"}, permNames(perms))
}

func TestSetConcurrentReadersSeeWholeSets(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)
	ctx := context.Background()
	a := repo.addPermission("roles")
	b := repo.addPermission("permisos")
	c := repo.addPermission("usuarios")
	d := repo.addPermission("paquetes")
	admin := repo.addRole("Administrador", a, b)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set := []int64{a, b}
			if i%2 == 0 {
				set = []int64{c, d}
			}
			assert.NoError(t, svc.Set(ctx, admin, set))
		}(i)
	}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perms, err := svc.RolePermissions(ctx, admin)
			if !assert.NoError(t, err) {
				return
			}
			names := permNames(perms)
			assert.Len(t, names, 2)
			assert.True(t,
				assert.ObjectsAreEqual([]string{"roles", "permisos"}, names) ||
					assert.ObjectsAreEqual([]string{"usuarios", "paquetes"}, names),
				"half-applied set observed: %v", names)
		}()
	}
	wg.Wait()
}

func TestCreateRoleRequiresPermissions(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)

	_, err := svc.CreateRole(context.Background(), rbac.RoleInput{Name: "Guía"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "Debes seleccionar al menos un permiso", err.Error())
}

func TestCreateRoleWithPermissions(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)
	ctx := context.Background()
	paquetes := repo.addPermission("paquetes")

	role, err := svc.CreateRole(ctx, rbac.RoleInput{Name: "  Guía ", PermissionIDs: []int64{paquetes}})
	require.NoError(t, err)
	assert.Equal(t, "Guía", role.Name, "names are trimmed and NFC normalised")
	assert.Equal(t, rbac.StateActive, role.State)
	assert.Equal(t, []string{"paquetes"}, permNames(role.Permissions))

	_, err = svc.CreateRole(ctx, rbac.RoleInput{Name: "Otro", PermissionIDs: []int64{77}})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	roles, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 1, "failed creation leaves no role behind")
}

func TestUpdateRoleReplacesPermissionsOnlyWhenGiven(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)
	ctx := context.Background()
	a := repo.addPermission("roles")
	b := repo.addPermission("permisos")
	role := repo.addRole("Administrador", a)

	desc := "todo"
	updated, err := svc.UpdateRole(ctx, role, rbac.RoleUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "todo", updated.Description)
	assert.Equal(t, []string{"roles"}, permNames(updated.Permissions))

	updated, err = svc.UpdateRole(ctx, role, rbac.RoleUpdate{PermissionIDs: []int64{b}})
	require.NoError(t, err)
	assert.Equal(t, []string{"permisos"}, permNames(updated.Permissions))

	bad := rbac.State("borrado")
	_, err = svc.UpdateRole(ctx, role, rbac.RoleUpdate{State: &bad})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteRoleInUse(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)
	role := repo.addRole("Usuario")
	repo.inUse[role] = true

	assert.ErrorIs(t, svc.DeleteRole(context.Background(), role), shared.ErrConflict)
	assert.ErrorIs(t, svc.DeleteRole(context.Background(), 50), shared.ErrNotFound)
}

func TestEnsurePermission(t *testing.T) {
	repo := newFakeRepo()
	svc := rbac.NewService(repo)
	ctx := context.Background()

	first, err := svc.EnsurePermission(ctx, "reservas", "")
	require.NoError(t, err)
	second, err := svc.EnsurePermission(ctx, "reservas", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestModuleRegistry(t *testing.T) {
	seen := map[rbac.Module]bool{}
	for _, m := range rbac.Modules() {
		assert.True(t, m.Valid())
		assert.False(t, seen[m], "duplicate module %s", m)
		seen[m] = true
	}
	assert.Len(t, seen, 8)
	assert.False(t, rbac.Module("publico").Valid())
}
