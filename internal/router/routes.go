package router

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gorilla/mux"
)

// Requirement is a tri-state route flag. Inherit defers to the parent record.
type Requirement int

const (
	Inherit Requirement = iota
	Required
	Open
)

// Meta carries the access flags of a route record.
type Meta struct {
	RequiresAuth  Requirement
	RequiresAdmin Requirement
}

// Route is one record of the route table. Children inherit unset flags.
// A record without Name is a grouping node and is not navigable by itself.
type Route struct {
	Name     string
	Path     string
	Meta     Meta
	Children []Route
}

// Route names.
const (
	NameLogin             = "login"
	NameNotFound          = "NotFound"
	NameUserLogout        = "user/logout"
	NameUserReservations  = "user/reservations"
	NameUserReserve       = "user/reserve"
	NameAdminGeneral      = "admin/general"
	NameAdminReservations = "admin/reservations"
	NameAdminUsers        = "admin/users"
	NameAdminHardware     = "admin/hardware"
	NameAdminContainers   = "admin/containers"
	NameAdminComputers    = "admin/computers"
	NameAdminRoles        = "admin/roles"
)

// Well-known paths.
const (
	PathLogin            = "/"
	PathLogout           = "/user/logout"
	PathUserReservations = "/user/reservations"
)

// DefaultRoutes returns the application route table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: NameLogin, Path: "/", Meta: Meta{RequiresAuth: Open}},
		{Path: "/user", Children: []Route{
			{Name: NameUserLogout, Path: "logout", Meta: Meta{RequiresAuth: Open}},
			{Name: NameUserReservations, Path: "reservations", Meta: Meta{RequiresAuth: Required}},
			{Name: NameUserReserve, Path: "reserve", Meta: Meta{RequiresAuth: Required}},
		}},
		{Path: "/admin", Meta: Meta{RequiresAuth: Required, RequiresAdmin: Required}, Children: []Route{
			{Name: NameAdminGeneral, Path: "general"},
			{Name: NameAdminReservations, Path: "reservations"},
			{Name: NameAdminUsers, Path: "users"},
			{Name: NameAdminHardware, Path: "hardware"},
			{Name: NameAdminContainers, Path: "containers"},
			{Name: NameAdminComputers, Path: "computers"},
			{Name: NameAdminRoles, Path: "roles"},
		}},
	}
}

// Location is a resolved navigation target.
type Location struct {
	Path string
	Name string
	Vars map[string]string
	// Matched lists the record chain, root first.
	Matched []Meta
}

// RequiresAuth reports the effective flag: the most specific record that sets it wins.
func (l Location) RequiresAuth() bool {
	return effective(l.Matched, func(m Meta) Requirement { return m.RequiresAuth })
}

// RequiresAdmin reports the effective admin flag, resolved like RequiresAuth.
func (l Location) RequiresAdmin() bool {
	return effective(l.Matched, func(m Meta) Requirement { return m.RequiresAdmin })
}

func effective(chain []Meta, pick func(Meta) Requirement) bool {
	for i := len(chain) - 1; i >= 0; i-- {
		switch pick(chain[i]) {
		case Required:
			return true
		case Open:
			return false
		}
	}
	return false
}

// Table matches paths against a flattened route table with gorilla/mux.
// Unmatched paths resolve to the NotFound record.
type Table struct {
	mux    *mux.Router
	chains map[string][]Meta
}

// NewTable flattens routes and registers every named record plus the catch-all.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{
		mux:    mux.NewRouter(),
		chains: make(map[string][]Meta),
	}
	if err := t.register("", nil, routes); err != nil {
		return nil, err
	}
	t.mux.PathPrefix("/").Name(NameNotFound)
	t.chains[NameNotFound] = []Meta{{RequiresAuth: Open}}
	return t, nil
}

func (t *Table) register(prefix string, parents []Meta, routes []Route) error {
	for _, r := range routes {
		full := joinPath(prefix, r.Path)
		chain := append(append([]Meta(nil), parents...), r.Meta)

		if r.Name != "" {
			if r.Name == NameNotFound {
				return fmt.Errorf("route name %q is reserved", r.Name)
			}
			if _, dup := t.chains[r.Name]; dup {
				return fmt.Errorf("duplicate route name %q", r.Name)
			}
			route := t.mux.Path(full).Name(r.Name)
			if err := route.GetError(); err != nil {
				return fmt.Errorf("route %q (%s): %w", r.Name, full, err)
			}
			t.chains[r.Name] = chain
		}
		if err := t.register(full, chain, r.Children); err != nil {
			return err
		}
	}
	return nil
}

// Resolve matches p and returns its location.
func (t *Table) Resolve(p string) Location {
	clean := NormalizePath(p)
	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: clean}}

	var match mux.RouteMatch
	if !t.mux.Match(req, &match) || match.Route == nil {
		return Location{Path: clean, Name: NameNotFound, Matched: t.chains[NameNotFound]}
	}
	name := match.Route.GetName()
	return Location{
		Path:    clean,
		Name:    name,
		Vars:    match.Vars,
		Matched: t.chains[name],
	}
}

// NormalizePath drops query and fragment, cleans the path and guarantees a leading slash.
func NormalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func joinPath(prefix, p string) string {
	if strings.HasPrefix(p, "/") || prefix == "" {
		return NormalizePath(p)
	}
	return NormalizePath(prefix + "/" + p)
}
