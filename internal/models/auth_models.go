package models

import "time"

// Roles known to the system. Atendente handles the front desk, Tecnico
// executes repairs.
const (
	RoleAdmin      = "Admin"
	RoleAttendant  = "Atendente"
	RoleTechnician = "Tecnico"
)

// User represents a staff account. Every mutating call in the system
// carries the acting user's ID.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        *string   `json:"email,omitempty" db:"email"`
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
