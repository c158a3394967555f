package session

// Package session contains domain-level types for the authenticated half of
// the storefront client state. It is pure and free of adapter concerns.

import "github.com/levelup/storefront/internal/domain/model"

// Session is the authenticated-identity half of the client state: an opaque
// API token plus the user record it belongs to. Authentication is
// all-or-nothing: Token is empty iff User is nil.
type Session struct {
	Token string            `json:"token"`
	User  *model.UserRecord `json:"usuario"`
}

// Active reports whether the session represents an authenticated user.
func (s Session) Active() bool { return s.Token != "" && s.User != nil }

// IsAdmin reports whether the session belongs to an ADMIN user.
func (s Session) IsAdmin() bool { return s.Active() && s.User.Role == model.RoleAdmin }

// Consistent reports whether the all-or-nothing invariant holds: both halves
// present or both absent. Rehydration treats an inconsistent pair as absent.
func (s Session) Consistent() bool {
	return (s.Token == "") == (s.User == nil)
}

// Clone returns an independent copy of the session.
func (s Session) Clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}
