package config

import "time"

// AuthConfig contains configuration for the remote AuthAPI collaborator.
type AuthConfig struct {
	// BaseURL is the base URL of the AuthAPI service (login/registration).
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8081"`

	// Timeout bounds each outbound AuthAPI call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// Dev auth provider settings, used only when DEV mode is enabled.
	DevEmail  string `env:"DEV_EMAIL"  envDefault:"dev@levelup.local"`
	DevNombre string `env:"DEV_NOMBRE" envDefault:"Dev"`
	DevRole   string `env:"DEV_ROLE"   envDefault:"ADMIN"`
	DevPoints int    `env:"DEV_POINTS" envDefault:"1000"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.Timeout <= 0 {
		a.Timeout = 10 * time.Second
	}
	if a.DevPoints < 0 {
		a.DevPoints = 0
	}
}
