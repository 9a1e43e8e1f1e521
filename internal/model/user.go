package model

import "time"

// Account roles carried in the access token.
const (
	RoleEngineer = "ENGINEER"
	RoleAdmin    = "ADMIN"
)

// User mirrors a row of the users table.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
