package config

import (
	"fmt"
	"strings"
	"time"
)

// BackendMode selects where the console sends its API calls.
type BackendMode string

const (
	// BackendModeHTTP talks to the reservation server at the deployment address.
	BackendModeHTTP BackendMode = "http"
	// BackendModeMock serves the API from an in-process dev backend (for development only).
	BackendModeMock BackendMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for BackendMode.
func (m *BackendMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "http", "mock":
		*m = BackendMode(v)
		return nil
	default:
		return fmt.Errorf("invalid BackendMode: %q (valid options: http, mock)", v)
	}
}

// BackendConfig contains backend selection and the dev backend accounts.
type BackendConfig struct {
	Mode    BackendMode `env:"BACKEND_MODE" envDefault:"http"`
	DevAuth DevBackendConfig
}

// Sanitize applies defaults to the dev backend accounts.
func (b *BackendConfig) Sanitize() {
	if b.Mode == "" {
		b.Mode = BackendModeHTTP
	}
	b.DevAuth.Sanitize()
}

// DevBackendConfig holds the accounts served by the in-process dev backend.
type DevBackendConfig struct {
	AdminUsername string        `env:"DEV_BACKEND_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string        `env:"DEV_BACKEND_ADMIN_PASSWORD" envDefault:"admin"`
	AdminEmail    string        `env:"DEV_BACKEND_ADMIN_EMAIL"    envDefault:"admin@example.com"`
	UserUsername  string        `env:"DEV_BACKEND_USER_USERNAME"  envDefault:"user"`
	UserPassword  string        `env:"DEV_BACKEND_USER_PASSWORD"  envDefault:"user"`
	UserEmail     string        `env:"DEV_BACKEND_USER_EMAIL"     envDefault:"user@example.com"`
	TokenTTL      time.Duration `env:"DEV_BACKEND_TOKEN_TTL"      envDefault:"8h"`
}

// Sanitize keeps the token lifetime positive.
func (d *DevBackendConfig) Sanitize() {
	if d.TokenTTL <= 0 {
		d.TokenTTL = 8 * time.Hour
	}
}
