package auth

import "time"

// DefaultRoleName is assigned to self-registered identities.
const DefaultRoleName = "Usuario"

// User is an identity together with its hashed credential and role.
// RoleName is nil only when storage is inconsistent.
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	RoleID       int64     `db:"role_id"`
	RoleName     *string   `db:"role_name"`
	CreatedAt    time.Time `db:"created_at"`
}

// Role is the subset of a role record needed during registration.
type Role struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token string
	User  *User
}
