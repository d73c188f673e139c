package users

import "time"

// User represents a user account for management.
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	RoleID       int64     `db:"role_id"`
	RoleName     *string   `db:"role_name"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// CreateInput carries the fields of a new user.
type CreateInput struct {
	Email    string
	Password string
	RoleID   int64
}

// UpdateInput carries a partial update. A new role takes effect on the
// user's next login; tokens already issued keep their role snapshot.
type UpdateInput struct {
	Password *string
	RoleID   *int64
}

// RoleRef is the JSON form of a user's role.
type RoleRef struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// UserResponse is the JSON form of a user. The password digest is never exposed.
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Rol       *RoleRef  `json:"rol"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserResponse maps a user to its JSON form.
func NewUserResponse(u User) UserResponse {
	resp := UserResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
	if u.RoleName != nil {
		resp.Rol = &RoleRef{ID: u.RoleID, Nombre: *u.RoleName}
	}
	return resp
}
