package domain

import "time"

// UserRole enumerates operator roles.
type UserRole string

const (
	UserRoleAgent UserRole = "AGENT"
	UserRoleAdmin UserRole = "ADMIN"
)

// User models an operator who creates, works, or is assigned tickets.
type User struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Phone        *string   `db:"phone"`
	PasswordHash string    `db:"password_hash"`
	Role         UserRole  `db:"role"`
	Active       bool      `db:"active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
