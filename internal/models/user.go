package models

import (
	"time"

	"legalizador/internal/catalog"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"` // Never serialize in JSON
	Role         string    `json:"role" db:"role"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsActive reports whether the user may sign in.
func (u *User) IsActive() bool {
	return catalog.UserStatusFromLabel(u.Status) == catalog.UserActive
}

// UserView is a user as shown to clients, with translated role and status.
type UserView struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserView(u *User) UserView {
	return UserView{
		ID:        ID(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		Role:      catalog.RoleLabel(u.Role),
		Status:    catalog.UserStatusLabel(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserRequest is used by administrators. Role and status may be sent
// as stored values or Spanish labels.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
	Status   string `json:"status"`
}

// UpdateUserRequest leaves the password unchanged when it is empty.
type UpdateUserRequest struct {
	ID       ID     `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
	Role     string `json:"role" validate:"required"`
	Status   string `json:"status" validate:"required"`
}
