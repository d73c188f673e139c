package rbac

import "time"

// Module identifies a protected route group. Each value is also the name of
// the Permission that grants access to it.
type Module string

// Registered modules.
const (
	ModuleRoles       Module = "roles"
	ModulePermisos    Module = "permisos"
	ModuleUsuarios    Module = "usuarios"
	ModulePaquetes    Module = "paquetes"
	ModuleItinerarios Module = "itinerarios"
	ModuleActividades Module = "actividades"
	ModuleServicios   Module = "servicios"
	ModuleReservas    Module = "reservas"
)

// Modules returns every registered module in mount order.
func Modules() []Module {
	return []Module{
		ModuleRoles,
		ModulePermisos,
		ModuleUsuarios,
		ModulePaquetes,
		ModuleItinerarios,
		ModuleActividades,
		ModuleServicios,
		ModuleReservas,
	}
}

// Valid reports whether m is registered.
func (m Module) Valid() bool {
	for _, known := range Modules() {
		if m == known {
			return true
		}
	}
	return false
}

func (m Module) String() string { return string(m) }

// State is the lifecycle flag shared by roles and permissions.
type State string

const (
	StateActive   State = "activo"
	StateInactive State = "inactivo"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	return s == StateActive || s == StateInactive
}

// Role represents a named grouping of permissions.
type Role struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	State        State     `db:"state"`
	CreatedBy    *int64    `db:"created_by"`
	CreatorEmail *string   `db:"creator_email"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	Permissions []Permission `db:"-"`
}

// Permission represents an atomic capability. Its Name matches a Module.
type Permission struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	State       State     `db:"state"`
	CreatedBy   *int64    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	Roles []RoleRef `db:"-"`
}

// RoleRef is the short form of a role.
type RoleRef struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// RoleInput carries the fields for a new role.
type RoleInput struct {
	Name          string
	Description   string
	State         State
	CreatedBy     *int64
	PermissionIDs []int64
}

// RoleUpdate carries a partial role update. A non-empty PermissionIDs
// replaces the role's permission set.
type RoleUpdate struct {
	Name          *string
	Description   *string
	State         *State
	PermissionIDs []int64
}

// PermissionInput carries the fields for a new permission.
type PermissionInput struct {
	Name        string
	Description string
	State       State
	CreatedBy   *int64
}

// PermissionUpdate carries a partial permission update.
type PermissionUpdate struct {
	Name        *string
	Description *string
	State       *State
}
