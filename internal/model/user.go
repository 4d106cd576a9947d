package model

import "time"

// User represents a system user
type User struct {
	ID           int64      `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	Active       bool       `json:"active" db:"active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Email: u.Email, Role: u.Role}
}

// UserFilter represents user search parameters
type UserFilter struct {
	Role   Role  `form:"role"`
	Active *bool `form:"active"`
	Pagination
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=patient nurse admin auditor user"`
}

type UpdateUserStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}
