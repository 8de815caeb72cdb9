package store

import (
	"time"

	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/model"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/settings"
)

// Message is the single global notification. A newer message replaces the current one.
type Message struct {
	Text      string
	Color     string
	Visible   bool
	Close     bool
	Timeout   time.Duration
	Multiline bool
}

// State is an immutable snapshot of the session store.
// Values are never modified after publication; getters are pure.
type State struct {
	initializing       bool
	configAttempted    bool
	configLoaded       bool
	configError        bool
	configErrorMessage string

	session  domainauth.Session
	config   model.AppConfig
	message  Message
	defaults settings.Defaults
}

func initialState(defaults settings.Defaults) State {
	return State{
		initializing: true,
		config:       model.DefaultAppConfig(),
		message: Message{
			Color:   DefaultMessageColor,
			Timeout: DefaultMessageTimeout,
		},
		defaults: defaults,
	}
}

func (s State) IsLoggedIn() bool     { return s.session.IsLoggedIn() }
func (s State) IsAdmin() bool        { return s.session.IsAdmin() }
func (s State) IsInitializing() bool { return s.initializing }

// User returns the current session (zero value when logged out).
func (s State) User() domainauth.Session { return s.session }

func (s State) AppConfig() model.AppConfig { return s.config }
func (s State) IsConfigLoaded() bool       { return s.configLoaded }
func (s State) HasConfigError() bool       { return s.configError }
func (s State) ConfigErrorMessage() string { return s.configErrorMessage }

func (s State) AppName() string {
	return firstNonEmpty(s.config.App.Name, s.defaults.AppName)
}

func (s State) AppTimezone() string {
	return firstNonEmpty(s.config.App.Timezone, s.defaults.Timezone)
}

func (s State) ContactEmail() string {
	return firstNonEmpty(s.config.App.ContactEmail, s.defaults.ContactEmail)
}

func (s State) ReservationMinDuration() int { return s.config.Reservation.MinimumDuration }
func (s State) ReservationMaxDuration() int { return s.config.Reservation.MaximumDuration }

func (s State) LoginPageInfo() string               { return s.config.Instructions.Login }
func (s State) ReservationPageInstructions() string { return s.config.Instructions.Reservation }
func (s State) EmailInstructions() string           { return s.config.Instructions.Email }
func (s State) LoginText() string                   { return s.config.Login.LoginText }

// UsernameField resolves the label: instruction override, then login block, then deployment default.
func (s State) UsernameField() string {
	return firstNonEmpty(s.config.Instructions.UsernameFieldLabel, s.config.Login.UsernameField, s.defaults.UsernameField)
}

// PasswordField resolves the label the same way as UsernameField.
func (s State) PasswordField() string {
	return firstNonEmpty(s.config.Instructions.PasswordFieldLabel, s.config.Login.PasswordField, s.defaults.PasswordField)
}

func (s State) Snackbar() Message { return s.message }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
