// Package settings resolves deployment-time settings into typed API endpoint
// descriptors and static defaults. Everything here is pure.
package settings

import (
	"net/http"
	"strings"
)

// Endpoint describes one backend API call.
type Endpoint struct {
	Method string
	URL    string
}

// AppEndpoints are public, unauthenticated endpoints.
type AppEndpoints struct {
	GetConfig Endpoint
}

// UserEndpoints cover login and the caller's own account.
type UserEndpoints struct {
	Login          Endpoint
	CheckToken     Endpoint
	Profile        Endpoint
	HasPassword    Endpoint
	CreatePassword Endpoint
	ChangePassword Endpoint
}

// ReservationEndpoints cover the reservation area of a logged-in user.
type ReservationEndpoints struct {
	GetAvailableHardware     Endpoint
	GetAvailabilityTimeline  Endpoint
	GetAllReservationsForCal Endpoint
	GetOwnReservations       Endpoint
	GetOwnReservationDetails Endpoint
	CreateReservation        Endpoint
	GetCurrentReservations   Endpoint
	CancelReservation        Endpoint
	ExtendReservation        Endpoint
	RestartContainer         Endpoint
}

// AdminEndpoints cover the admin area.
type AdminEndpoints struct {
	Reservations              Endpoint
	EditReservation           Endpoint
	Users                     Endpoint
	User                      Endpoint
	SaveUser                  Endpoint
	Hardware                  Endpoint
	Containers                Endpoint
	Container                 Endpoint
	SaveContainer             Endpoint
	RemoveContainer           Endpoint
	Computers                 Endpoint
	Computer                  Endpoint
	SaveComputer              Endpoint
	RemoveComputer            Endpoint
	Roles                     Endpoint
	SaveRole                  Endpoint
	RemoveRole                Endpoint
	RoleMounts                Endpoint
	SaveRoleMounts            Endpoint
	RoleHardwareLimits        Endpoint
	SaveRoleHardwareLimits    Endpoint
	RoleReservationLimits     Endpoint
	SaveRoleReservationLimits Endpoint
	Servers                   Endpoint
	GetGeneralSettings        Endpoint
	SaveGeneralSettings       Endpoint
	TestEmail                 Endpoint
}

// Endpoints is the full descriptor table derived from one base address.
type Endpoints struct {
	BaseAddress string
	App         AppEndpoints
	User        UserEndpoints
	Reservation ReservationEndpoints
	Admin       AdminEndpoints
}

// ServerMonitoring returns the per-computer monitoring endpoint.
func (e Endpoints) ServerMonitoring(computerID string) Endpoint {
	return get(e.BaseAddress, "admin/server/"+computerID+"/monitoring")
}

// NormalizeBaseAddress trims whitespace and guarantees a single trailing slash.
func NormalizeBaseAddress(base string) string {
	b := strings.TrimSpace(base)
	b = strings.TrimRight(b, "/")
	return b + "/"
}

// Resolve builds the endpoint table for the given API base address
// (for example "https://cotf.example.com:8000/api/").
func Resolve(base string) Endpoints {
	b := NormalizeBaseAddress(base)
	return Endpoints{
		BaseAddress: b,
		App: AppEndpoints{
			GetConfig: get(b, "app/config"),
		},
		User: UserEndpoints{
			Login:          post(b, "user/login"),
			CheckToken:     get(b, "user/check_token"),
			Profile:        get(b, "user/profile"),
			HasPassword:    get(b, "user/has_password"),
			CreatePassword: post(b, "user/create_password"),
			ChangePassword: post(b, "user/change_password"),
		},
		Reservation: ReservationEndpoints{
			GetAvailableHardware:     get(b, "reservation/get_available_hardware"),
			GetAvailabilityTimeline:  get(b, "reservation/get_availability_timeline"),
			GetAllReservationsForCal: get(b, "reservation/get_all_reservations_for_calendar"),
			GetOwnReservations:       post(b, "reservation/get_own_reservations"),
			GetOwnReservationDetails: get(b, "reservation/get_own_reservation_details"),
			CreateReservation:        post(b, "reservation/create_reservation"),
			GetCurrentReservations:   get(b, "reservation/get_current_reservations"),
			CancelReservation:        post(b, "reservation/cancel_reservation"),
			ExtendReservation:        post(b, "reservation/extend_reservation"),
			RestartContainer:         post(b, "reservation/restart_container"),
		},
		Admin: AdminEndpoints{
			Reservations:              post(b, "admin/reservations"),
			EditReservation:           post(b, "admin/edit_reservation"),
			Users:                     get(b, "admin/users"),
			User:                      get(b, "admin/user"),
			SaveUser:                  post(b, "admin/save_user"),
			Hardware:                  get(b, "admin/hardware"),
			Containers:                get(b, "admin/containers"),
			Container:                 get(b, "admin/container"),
			SaveContainer:             post(b, "admin/save_container"),
			RemoveContainer:           post(b, "admin/remove_container"),
			Computers:                 get(b, "admin/computers"),
			Computer:                  get(b, "admin/computer"),
			SaveComputer:              post(b, "admin/save_computer"),
			RemoveComputer:            post(b, "admin/remove_computer"),
			Roles:                     get(b, "admin/roles"),
			SaveRole:                  post(b, "admin/save_role"),
			RemoveRole:                post(b, "admin/remove_role"),
			RoleMounts:                get(b, "admin/role_mounts"),
			SaveRoleMounts:            post(b, "admin/save_role_mounts"),
			RoleHardwareLimits:        get(b, "admin/role_hardware_limits"),
			SaveRoleHardwareLimits:    post(b, "admin/save_role_hardware_limits"),
			RoleReservationLimits:     get(b, "admin/role_reservation_limits"),
			SaveRoleReservationLimits: post(b, "admin/save_role_reservation_limits"),
			Servers:                   get(b, "admin/servers"),
			GetGeneralSettings:        get(b, "admin/general-settings"),
			SaveGeneralSettings:       post(b, "admin/general-settings"),
			TestEmail:                 post(b, "admin/test-email"),
		},
	}
}

func get(base, path string) Endpoint { return Endpoint{Method: http.MethodGet, URL: base + path} }
func post(base, path string) Endpoint { return Endpoint{Method: http.MethodPost, URL: base + path} }
