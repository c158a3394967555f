package service

import (
	"context"
	"strings"

	"github.com/levelup/storefront/internal/domain/model"
	apperrors "github.com/levelup/storefront/internal/errors"
	"github.com/levelup/storefront/internal/ports"
)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Users ports.UserRepository
	// Auth, when set, registers new users with the AuthAPI before storing
	// them locally, so the remote directory stays the source of credentials.
	Auth ports.AuthProvider
}

// UserService orchestrates admin user CRUD.
type UserService struct {
	users ports.UserRepository
	auth  ports.AuthProvider
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	return &UserService{users: opts.Users, auth: opts.Auth}
}

// Create registers and stores a new user.
func (s *UserService) Create(ctx context.Context, u *model.UserRecord) (*model.UserRecord, error) {
	if u == nil {
		return nil, apperrors.Validation("user is required")
	}
	if err := u.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid user")
	}

	record := *u
	if s.auth != nil {
		registered, err := s.auth.Register(ctx, record)
		if err != nil {
			return nil, err
		}
		record = *registered
	}
	return s.users.Create(ctx, &record)
}

// GetByEmail retrieves a user by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apperrors.ValidationField("email", "email is required")
	}
	return s.users.GetByEmail(ctx, email)
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*model.UserRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

// Update applies partial updates to a user.
func (s *UserService) Update(ctx context.Context, email string, req model.UpdateUserRequest) (*model.UserRecord, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apperrors.ValidationField("email", "email is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid update")
	}
	return s.users.Update(ctx, email, req)
}

// Delete removes a user by email. Returns false when no user matched.
func (s *UserService) Delete(ctx context.Context, email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, apperrors.ValidationField("email", "email is required")
	}
	return s.users.Delete(ctx, email)
}
