package settings

import (
	"strings"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/model"
)

// Placeholder keys understood by the client templates.
const (
	KeyAppName               = "APP_NAME"
	KeyServerWebAddress      = "SERVER_WEB_ADDRESS"
	KeyBackendAdditionalPort = "BACKEND_ADDITIONAL_PORT"
	KeyContactEmail          = "CONTACT_EMAIL"
	KeyTimezone              = "TIMEZONE"
)

// Deployment holds the values fixed when the client is deployed.
type Deployment struct {
	AppName               string
	ServerWebAddress      string
	BackendAdditionalPort string
	ContactEmail          string
	Timezone              string
}

// Defaults are the static fallbacks getters use before (or instead of) server values.
type Defaults struct {
	AppName       string
	Timezone      string
	ContactEmail  string
	UsernameField string
	PasswordField string
}

// NormalizePort turns "8000" into ":8000"; empty stays empty.
func NormalizePort(port string) string {
	p := strings.TrimSpace(port)
	if p == "" || strings.HasPrefix(p, ":") {
		return p
	}
	return ":" + p
}

// BaseAddress returns the API base address, e.g. "http://localhost:8000/api/".
func (d Deployment) BaseAddress() string {
	addr := strings.TrimRight(strings.TrimSpace(d.ServerWebAddress), "/")
	return addr + NormalizePort(d.BackendAdditionalPort) + "/api/"
}

// Endpoints resolves the endpoint table for this deployment.
func (d Deployment) Endpoints() Endpoints {
	return Resolve(d.BaseAddress())
}

// Defaults returns the static fallbacks for this deployment.
func (d Deployment) Defaults() Defaults {
	return Defaults{
		AppName:       d.AppName,
		Timezone:      d.Timezone,
		ContactEmail:  d.ContactEmail,
		UsernameField: model.DefaultUsernameField,
		PasswordField: model.DefaultPasswordField,
	}
}

// Values returns the placeholder substitutions for this deployment.
func (d Deployment) Values() Values {
	return Values{
		KeyAppName:               d.AppName,
		KeyServerWebAddress:      d.ServerWebAddress,
		KeyBackendAdditionalPort: NormalizePort(d.BackendAdditionalPort),
		KeyContactEmail:          d.ContactEmail,
		KeyTimezone:              d.Timezone,
	}
}
