package config

import (
	"strings"
	"time"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/settings"
)

// DeploymentConfig holds the values the settings script would bake into the client.
// Names match the keys of the deployment settings file.
type DeploymentConfig struct {
	AppName               string `env:"APP_NAME"                envDefault:"Containers on the Fly"`
	ServerWebAddress      string `env:"SERVER_WEB_ADDRESS"      envDefault:"http://localhost"`
	BackendAdditionalPort string `env:"BACKEND_ADDITIONAL_PORT" envDefault:"8000"`
	ContactEmail          string `env:"CONTACT_EMAIL"           envDefault:""`
	Timezone              string `env:"TIMEZONE"                envDefault:"Europe/Helsinki"`
}

// Sanitize trims whitespace and a trailing slash from the server address.
func (d *DeploymentConfig) Sanitize() {
	d.AppName = strings.TrimSpace(d.AppName)
	d.ServerWebAddress = strings.TrimRight(strings.TrimSpace(d.ServerWebAddress), "/")
	d.BackendAdditionalPort = strings.TrimSpace(d.BackendAdditionalPort)
	d.ContactEmail = strings.TrimSpace(d.ContactEmail)
	d.Timezone = strings.TrimSpace(d.Timezone)
}

// Settings converts the env view into the settings package's deployment record.
func (d DeploymentConfig) Settings() settings.Deployment {
	return settings.Deployment{
		AppName:               d.AppName,
		ServerWebAddress:      d.ServerWebAddress,
		BackendAdditionalPort: d.BackendAdditionalPort,
		ContactEmail:          d.ContactEmail,
		Timezone:              d.Timezone,
	}
}

// ClientConfig tunes the outbound API client.
type ClientConfig struct {
	// Timeout bounds every backend request.
	Timeout time.Duration `env:"CLIENT_TIMEOUT" envDefault:"15s"`

	// UserAgent is sent on every request.
	UserAgent string `env:"CLIENT_USER_AGENT" envDefault:"cotf-console"`
}

// Sanitize clamps the timeout to a sane range.
func (c *ClientConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.Timeout > 5*time.Minute {
		c.Timeout = 5 * time.Minute
	}
	c.UserAgent = strings.TrimSpace(c.UserAgent)
}
