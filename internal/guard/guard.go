// Package guard implements the navigation access-control rules shared with
// the SPA front-ends. Decide is a pure function over (role, authenticated,
// path) so clients and server agree on where any navigation attempt lands.
package guard

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
)

// Decision is the outcome of a guard check: either the navigation is
// allowed, or the client must redirect to RedirectTo.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func redirect(target string) Decision {
	return Decision{Allowed: false, RedirectTo: target}
}

// LoginPath is where unauthenticated users are sent, carrying the requested
// path as returnUrl.
const LoginPath = "/login"

// roleHomes maps each role to its landing route.
var roleHomes = map[model.Role]string{
	model.RoleSuperAdmin:       "/admin/dashboard",
	model.RolePharmacyAdmin:    "/pharmacy/dashboard",
	model.RolePharmacyEmployee: "/pharmacy/dashboard",
	model.RoleDelivery:         "/delivery/dashboard",
	model.RolePatient:          "/profile",
}

// guestOnlyPaths reject already-authenticated users.
var guestOnlyPaths = map[string]struct{}{
	"/login":           {},
	"/register":        {},
	"/forgot-password": {},
	"/reset-password":  {},
}

// publicPrefixes need no authentication at all.
var publicPrefixes = []string{
	"/",
	"/catalog",
	"/pharmacies",
	"/medications",
}

// rolePrefixes maps a path prefix to the roles allowed under it. Longest
// prefix wins; paths matching no entry require only authentication.
var rolePrefixes = []struct {
	Prefix string
	Roles  []model.Role
}{
	{Prefix: "/admin", Roles: []model.Role{model.RoleSuperAdmin}},
	{Prefix: "/pharmacy", Roles: []model.Role{model.RolePharmacyAdmin, model.RolePharmacyEmployee}},
	{Prefix: "/delivery", Roles: []model.Role{model.RoleDelivery}},
}

// RoleHome returns the landing route for a role.
func RoleHome(role model.Role) string {
	if home, ok := roleHomes[role]; ok {
		return home
	}
	return LoginPath
}

// Decide resolves whether a navigation to path is permitted for the given
// identity. It never errs: unknown paths default to requiring
// authentication only.
func Decide(role model.Role, authenticated bool, path string) Decision {
	path = normalize(path)

	if _, guestOnly := guestOnlyPaths[path]; guestOnly {
		if authenticated {
			return redirect(RoleHome(role))
		}
		return allow()
	}

	if isPublic(path) {
		return allow()
	}

	if !authenticated {
		return redirect(LoginPath + "?returnUrl=" + url.QueryEscape(path))
	}

	if required, scoped := requiredRoles(path); scoped {
		for _, r := range required {
			if r == role {
				return allow()
			}
		}
		return redirect(RoleHome(role))
	}

	return allow()
}

// PermissionChecker answers fine-grained employee capability checks against
// the backing store.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error)
}

// DecidePermission gates a path behind a named permission. The check fails
// closed: any error from the checker counts as "no permission" and the user
// is sent back to their dashboard. No retries.
func DecidePermission(ctx context.Context, checker PermissionChecker, actor model.Actor, permission string) Decision {
	ok, err := checker.HasPermission(ctx, actor.UserID, permission)
	if err != nil || !ok {
		return redirect(RoleHome(actor.Role))
	}
	return allow()
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func isPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if prefix == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func requiredRoles(path string) ([]model.Role, bool) {
	for _, entry := range rolePrefixes {
		if path == entry.Prefix || strings.HasPrefix(path, entry.Prefix+"/") {
			return entry.Roles, true
		}
	}
	return nil, false
}
