//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// DefaultReservationMinHours is the minimum reservation length used until the server says otherwise.
	DefaultReservationMinHours = 5
	// DefaultReservationMaxHours is the maximum reservation length used until the server says otherwise.
	DefaultReservationMaxHours = 72

	DefaultLoginText     = "Login with your credentials."
	DefaultUsernameField = "Username"
	DefaultPasswordField = "Password"
)

// AppInfo describes the deployment as reported by the backend.
type AppInfo struct {
	Name         string `json:"name"`
	Timezone     string `json:"timezone"`
	ContactEmail string `json:"contactEmail"`
}

// ReservationLimits bounds the length of a reservation, in hours.
type ReservationLimits struct {
	MinimumDuration int `json:"minimumDuration"`
	MaximumDuration int `json:"maximumDuration"`
}

// Instructions holds the admin-editable text blocks and field label overrides.
type Instructions struct {
	Login              string `json:"login"`
	Reservation        string `json:"reservation"`
	Email              string `json:"email"`
	UsernameFieldLabel string `json:"usernameFieldLabel"`
	PasswordFieldLabel string `json:"passwordFieldLabel"`
}

// LoginBlock holds the login form texts.
type LoginBlock struct {
	LoginText     string `json:"loginText"`
	UsernameField string `json:"usernameField"`
	PasswordField string `json:"passwordField"`
}

// AppConfig is the public application configuration served by the backend.
type AppConfig struct {
	App          AppInfo           `json:"app"`
	Reservation  ReservationLimits `json:"reservation"`
	Instructions Instructions      `json:"instructions"`
	Login        LoginBlock        `json:"login"`
}

// DefaultAppConfig returns the configuration in effect before the backend has answered.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Reservation: ReservationLimits{
			MinimumDuration: DefaultReservationMinHours,
			MaximumDuration: DefaultReservationMaxHours,
		},
		Login: LoginBlock{
			LoginText:     DefaultLoginText,
			UsernameField: DefaultUsernameField,
			PasswordField: DefaultPasswordField,
		},
	}
}

// AppConfigPayload is the "data" object of the config endpoint.
// Sections are pointers so an omitted section keeps its current value.
type AppConfigPayload struct {
	App          *AppInfo           `json:"app,omitempty"`
	Reservation  *ReservationLimits `json:"reservation,omitempty"`
	Instructions *Instructions      `json:"instructions,omitempty"`
	Login        *LoginBlock        `json:"login,omitempty"`
}

// ParseAppConfigPayload decodes the raw "data" object of the config endpoint.
func ParseAppConfigPayload(raw json.RawMessage) (AppConfigPayload, error) {
	var p AppConfigPayload
	if len(raw) == 0 || string(raw) == "null" {
		return p, errors.New("configuration payload is empty")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode configuration payload: %w", err)
	}
	return p, nil
}

// Apply returns base with every section present in the payload replaced.
func (p AppConfigPayload) Apply(base AppConfig) AppConfig {
	out := base
	if p.App != nil {
		out.App = *p.App
	}
	if p.Reservation != nil {
		out.Reservation = *p.Reservation
	}
	if p.Instructions != nil {
		out.Instructions = *p.Instructions
	}
	if p.Login != nil {
		out.Login = *p.Login
	}
	return out
}

// Validate checks the invariants of a configuration received from the backend.
func (c AppConfig) Validate() error {
	r := c.Reservation
	if r.MinimumDuration <= 0 || r.MaximumDuration <= 0 {
		return fmt.Errorf("reservation durations must be positive (min=%d, max=%d)",
			r.MinimumDuration, r.MaximumDuration)
	}
	if r.MinimumDuration > r.MaximumDuration {
		return fmt.Errorf("reservation minimum duration %d exceeds maximum %d",
			r.MinimumDuration, r.MaximumDuration)
	}
	return nil
}
