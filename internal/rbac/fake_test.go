package rbac_test

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

// fakeRepo keeps role links as slices so a double insert would be visible.
type fakeRepo struct {
	mu        sync.Mutex
	roles     map[int64]rbac.Role
	perms     map[int64]rbac.Permission
	links     map[int64][]int64
	inUse     map[int64]bool
	nextRole  int64
	nextPerm  int64
	accessErr error
	lookups   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		roles: map[int64]rbac.Role{},
		perms: map[int64]rbac.Permission{},
		links: map[int64][]int64{},
		inUse: map[int64]bool{},
	}
}

func (f *fakeRepo) addPermission(name string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextPerm++
	f.perms[f.nextPerm] = rbac.Permission{ID: f.nextPerm, Name: name, State: rbac.StateActive, CreatedAt: time.Now()}
	return f.nextPerm
}

func (f *fakeRepo) addRole(name string, permIDs ...int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRole++
	f.roles[f.nextRole] = rbac.Role{ID: f.nextRole, Name: name, State: rbac.StateActive}
	f.links[f.nextRole] = append([]int64(nil), permIDs...)
	return f.nextRole
}

func (f *fakeRepo) linkCount(roleID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links[roleID])
}

func (f *fakeRepo) HasModuleAccess(_ context.Context, roleName, permissionName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.accessErr != nil {
		return false, f.accessErr
	}
	for id, role := range f.roles {
		if role.Name != roleName {
			continue
		}
		for _, pid := range f.links[id] {
			if f.perms[pid].Name == permissionName {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeRepo) ListRoles(context.Context) ([]rbac.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := slices.Sorted(maps.Keys(f.roles))
	out := make([]rbac.Role, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.roles[id])
	}
	return out, nil
}

func (f *fakeRepo) GetRole(_ context.Context, id int64) (rbac.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role, ok := f.roles[id]
	if !ok {
		return rbac.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (f *fakeRepo) DeleteRole(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.roles[id]; !ok {
		return shared.ErrNotFound
	}
	if f.inUse[id] {
		return shared.ErrConflict
	}
	delete(f.roles, id)
	delete(f.links, id)
	return nil
}

func (f *fakeRepo) RolePermissions(_ context.Context, roleIDs ...int64) (map[int64][]rbac.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64][]rbac.Permission{}
	for _, id := range roleIDs {
		for _, pid := range f.links[id] {
			out[id] = append(out[id], f.perms[pid])
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPermissions(context.Context) ([]rbac.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := slices.Sorted(maps.Keys(f.perms))
	out := make([]rbac.Permission, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.perms[id])
	}
	return out, nil
}

func (f *fakeRepo) GetPermission(_ context.Context, id int64) (rbac.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	perm, ok := f.perms[id]
	if !ok {
		return rbac.Permission{}, shared.ErrNotFound
	}
	return perm, nil
}

func (f *fakeRepo) PermissionRoles(_ context.Context, permissionID int64) ([]rbac.RoleRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var refs []rbac.RoleRef
	for _, id := range slices.Sorted(maps.Keys(f.links)) {
		if slices.Contains(f.links[id], permissionID) {
			refs = append(refs, rbac.RoleRef{ID: id, Name: f.roles[id].Name})
		}
	}
	return refs, nil
}

func (f *fakeRepo) CreatePermission(_ context.Context, in rbac.PermissionInput) (rbac.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.perms {
		if p.Name == in.Name {
			return rbac.Permission{}, shared.ErrDuplicate
		}
	}
	f.nextPerm++
	perm := rbac.Permission{ID: f.nextPerm, Name: in.Name, Description: in.Description, State: in.State, CreatedBy: in.CreatedBy}
	f.perms[perm.ID] = perm
	return perm, nil
}

func (f *fakeRepo) UpdatePermission(_ context.Context, id int64, in rbac.PermissionUpdate) (rbac.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	perm, ok := f.perms[id]
	if !ok {
		return rbac.Permission{}, shared.ErrNotFound
	}
	if in.Name != nil {
		perm.Name = *in.Name
	}
	if in.Description != nil {
		perm.Description = *in.Description
	}
	if in.State != nil {
		perm.State = *in.State
	}
	f.perms[id] = perm
	return perm, nil
}

func (f *fakeRepo) DeletePermission(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.perms[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.perms, id)
	for roleID, ids := range f.links {
		f.links[roleID] = slices.DeleteFunc(ids, func(pid int64) bool { return pid == id })
	}
	return nil
}

// WithTx holds the lock for the whole callback and restores the previous
// state when it fails.
func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, rbac.TxRepository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	roles := maps.Clone(f.roles)
	links := make(map[int64][]int64, len(f.links))
	for id, ids := range f.links {
		links[id] = slices.Clone(ids)
	}
	next := f.nextRole
	if err := fn(ctx, &fakeTx{f: f}); err != nil {
		f.roles, f.links, f.nextRole = roles, links, next
		return err
	}
	return nil
}

type fakeTx struct {
	f *fakeRepo
}

func (t *fakeTx) LockRole(_ context.Context, roleID int64) error {
	if _, ok := t.f.roles[roleID]; !ok {
		return shared.ErrNotFound
	}
	return nil
}

func (t *fakeTx) CreateRole(_ context.Context, in rbac.RoleInput) (int64, error) {
	for _, r := range t.f.roles {
		if r.Name == in.Name {
			return 0, shared.ErrDuplicate
		}
	}
	t.f.nextRole++
	t.f.roles[t.f.nextRole] = rbac.Role{ID: t.f.nextRole, Name: in.Name, Description: in.Description, State: in.State, CreatedBy: in.CreatedBy}
	return t.f.nextRole, nil
}

func (t *fakeTx) UpdateRole(_ context.Context, id int64, in rbac.RoleUpdate) error {
	role, ok := t.f.roles[id]
	if !ok {
		return shared.ErrNotFound
	}
	if in.Name != nil {
		role.Name = *in.Name
	}
	if in.Description != nil {
		role.Description = *in.Description
	}
	if in.State != nil {
		role.State = *in.State
	}
	t.f.roles[id] = role
	return nil
}

func (t *fakeTx) MissingPermissions(_ context.Context, ids []int64) ([]int64, error) {
	var missing []int64
	for _, id := range ids {
		if _, ok := t.f.perms[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (t *fakeTx) RoleHolds(_ context.Context, roleID, permissionID int64) (bool, error) {
	return slices.Contains(t.f.links[roleID], permissionID), nil
}

func (t *fakeTx) Attach(_ context.Context, roleID, permissionID int64) error {
	t.f.links[roleID] = append(t.f.links[roleID], permissionID)
	return nil
}

func (t *fakeTx) Detach(_ context.Context, roleID, permissionID int64) error {
	t.f.links[roleID] = slices.DeleteFunc(t.f.links[roleID], func(id int64) bool { return id == permissionID })
	return nil
}

func (t *fakeTx) ClearRole(_ context.Context, roleID int64) error {
	t.f.links[roleID] = nil
	return nil
}

var (
	_ rbac.Repository   = (*fakeRepo)(nil)
	_ rbac.TxRepository = (*fakeTx)(nil)
)
