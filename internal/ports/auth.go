package ports

import (
	"context"

	"github.com/levelup/storefront/internal/domain/model"
	domainsession "github.com/levelup/storefront/internal/domain/session"
)

// Credentials carries inputs for a login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthProvider authenticates against the remote AuthAPI collaborator.
type AuthProvider interface {
	// Login exchanges credentials for a session (token + user record).
	// Failures surface as auth or validation errors; state is never partial.
	Login(ctx context.Context, creds Credentials) (domainsession.Session, error)

	// Register creates a new user record with the AuthAPI. Used by the admin
	// user-creation flow, not by the session store itself.
	Register(ctx context.Context, user model.UserRecord) (*model.UserRecord, error)
}
