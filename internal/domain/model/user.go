//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"net/mail"
	"strings"
)

// Role represents an application authorization role.
// Keep string form for easy persistence and JSON payloads.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether the role is supported.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a role string and reports whether it is supported.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if role.Valid() {
		return role, true
	}
	return "", false
}

// UserRecord is the user shape owned by the session store while a session is
// active. Points is mutated only through store operations (checkout and
// point redemption), never directly by consumers.
type UserRecord struct {
	Email     string `json:"email"            db:"email"`
	Nombre    string `json:"nombre"           db:"nombre"`
	Apellidos string `json:"apellidos"        db:"apellidos"`
	Run       string `json:"run,omitempty"    db:"run"`
	Role      Role   `json:"role"             db:"role"`
	Points    int    `json:"points"           db:"points"`
	Region    string `json:"region,omitempty" db:"region"`
	Comuna    string `json:"comuna,omitempty" db:"comuna"`
}

// Validate checks required user fields and invariants.
func (u *UserRecord) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return errors.New("email is not a valid address")
	}
	if strings.TrimSpace(u.Nombre) == "" {
		return errors.New("nombre is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if !u.Role.Valid() {
		return errors.New("role must be USER or ADMIN")
	}
	if u.Points < 0 {
		return errors.New("points cannot be negative")
	}
	return nil
}

// UpdateUserRequest represents parameters to update a UserRecord.
type UpdateUserRequest struct {
	Nombre    *string `json:"nombre,omitempty"`
	Apellidos *string `json:"apellidos,omitempty"`
	Run       *string `json:"run,omitempty"`
	Role      *Role   `json:"role,omitempty"`
	Points    *int    `json:"points,omitempty"`
	Region    *string `json:"region,omitempty"`
	Comuna    *string `json:"comuna,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateUserRequest.
func (r *UpdateUserRequest) HasUpdates() bool {
	return r.Nombre != nil || r.Apellidos != nil || r.Run != nil || r.Role != nil ||
		r.Points != nil || r.Region != nil || r.Comuna != nil
}

// Validate validates UpdateUserRequest.
func (r *UpdateUserRequest) Validate() error {
	if r.Nombre != nil && strings.TrimSpace(*r.Nombre) == "" {
		return errors.New("nombre cannot be empty")
	}
	if r.Role != nil && !r.Role.Valid() {
		return errors.New("role must be USER or ADMIN")
	}
	if r.Points != nil && *r.Points < 0 {
		return errors.New("points cannot be negative")
	}
	return nil
}
