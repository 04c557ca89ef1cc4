// Package access decides whether a principal may open a route.
package access

import (
	"strings"

	"finboard/internal/core"
)

const (
	LoginPath     = "/app/login"
	DashboardPath = "/app/dashboard"
	appPrefix     = "/app"
)

// Requirement is the elevation a route needs beyond being signed in.
type Requirement int

const (
	None Requirement = iota
	Admin
	Manager
)

func (r Requirement) String() string {
	switch r {
	case Admin:
		return "admin"
	case Manager:
		return "manager"
	default:
		return "none"
	}
}

var (
	adminRoles   = []core.Role{core.RoleSuperAdmin, core.RoleAdmin}
	managerRoles = []core.Role{core.RoleSuperAdmin, core.RoleAdmin, core.RoleManager}
)

// Decision is Allow, or a redirect target.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Decide is the pure guard. roles are compared case-insensitively.
func Decide(isAuthenticated bool, roles []string, req Requirement) Decision {
	if !isAuthenticated {
		return Decision{RedirectTo: LoginPath}
	}
	var allowed []core.Role
	switch req {
	case None:
		return Decision{Allow: true}
	case Admin:
		allowed = adminRoles
	case Manager:
		allowed = managerRoles
	default:
		return Decision{RedirectTo: DashboardPath}
	}
	if core.NewRoles(roles...).HasAny(allowed...) {
		return Decision{Allow: true}
	}
	return Decision{RedirectTo: DashboardPath}
}

// Principal is what the guard needs to know about the caller.
type Principal interface {
	IsAuthenticated() bool
	Roles() core.Roles
}

// Routes maps every protected route to its requirement.
var Routes = map[string]Requirement{
	"/app/dashboard":        None,
	"/app/reports":          None,
	"/app/notice-board":     None,
	"/app/profile":          None,
	"/app/subscription":     None,
	"/app/transactions":     None,
	"/app/transactions/new": Manager,
	"/app/members":          Admin,
	"/app/settings":         Admin,
}

// Guard evaluates Routes against a principal. It keeps no state between calls.
type Guard struct {
	routes map[string]Requirement
}

// NewGuard uses routes, or the default table when routes is nil.
func NewGuard(routes map[string]Requirement) *Guard {
	if routes == nil {
		routes = Routes
	}
	return &Guard{routes: routes}
}

// Requirement returns the requirement for path and whether path is protected.
func (g *Guard) Requirement(path string) (Requirement, bool) {
	path = cleanPath(path)
	if path != appPrefix && !strings.HasPrefix(path, appPrefix+"/") {
		return None, false
	}
	if path == LoginPath {
		return None, false
	}
	if req, ok := g.routes[path]; ok {
		return req, true
	}
	return None, true
}

// Check decides whether p may open path. Public paths are always allowed and
// /app itself redirects to the dashboard.
func (g *Guard) Check(p Principal, path string) Decision {
	req, protected := g.Requirement(path)
	if !protected {
		return Decision{Allow: true}
	}
	authed := p != nil && p.IsAuthenticated()
	if cleanPath(path) == appPrefix {
		if !authed {
			return Decision{RedirectTo: LoginPath}
		}
		return Decision{RedirectTo: DashboardPath}
	}
	var roles []string
	if authed {
		roles = p.Roles().Strings()
	}
	return Decide(authed, roles, req)
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return strings.ToLower(p)
}
