package devauth

// Package devauth provides a simple, config-driven AuthProvider for local
// development, so the storefront runs without the remote AuthAPI.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/levelup/storefront/internal/domain/model"
	domainsession "github.com/levelup/storefront/internal/domain/session"
	apperrors "github.com/levelup/storefront/internal/errors"
	"github.com/levelup/storefront/internal/ports"
)

// Config controls the dev auth provider behavior.
type Config struct {
	Email  string
	Nombre string
	Role   model.Role // default RoleAdmin when empty
	Points int
}

// Provider implements ports.AuthProvider for local development.
// Login accepts any non-empty password for the configured email and mints a
// fresh random token. Register echoes the record back with zeroed points.
type Provider struct {
	user model.UserRecord
}

var _ ports.AuthProvider = (*Provider)(nil)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	role := cfg.Role
	if role == "" {
		role = model.RoleAdmin
	}
	if !role.Valid() {
		return nil, fmt.Errorf("dev auth: invalid role %q", cfg.Role)
	}
	nombre := cfg.Nombre
	if nombre == "" {
		nombre = "Dev"
	}
	points := max(cfg.Points, 0)

	return &Provider{
		user: model.UserRecord{
			Email:  cfg.Email,
			Nombre: nombre,
			Role:   role,
			Points: points,
		},
	}, nil
}

// Login returns the configured identity with a fresh token. The email must
// match; any non-empty password is accepted.
func (p *Provider) Login(_ context.Context, creds ports.Credentials) (domainsession.Session, error) {
	if !strings.EqualFold(strings.TrimSpace(creds.Email), p.user.Email) || creds.Password == "" {
		return domainsession.Session{}, apperrors.Auth("invalid credentials")
	}

	token, err := randomToken(24)
	if err != nil {
		return domainsession.Session{}, fmt.Errorf("generate token: %w", err)
	}

	user := p.user
	return domainsession.Session{Token: token, User: &user}, nil
}

// Register validates and echoes the record; dev mode has no user directory.
func (p *Provider) Register(_ context.Context, user model.UserRecord) (*model.UserRecord, error) {
	if err := user.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid user")
	}
	user.Points = 0
	return &user, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
