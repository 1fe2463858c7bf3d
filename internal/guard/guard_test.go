package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pharmalink/marketplace-api/internal/model"
)

func TestDecideUnauthenticated(t *testing.T) {
	d := Decide("", false, "/admin/dashboard")
	assert.False(t, d.Allowed)
	assert.Equal(t, "/login?returnUrl=%2Fadmin%2Fdashboard", d.RedirectTo)

	d = Decide("", false, "/orders/my-orders")
	assert.False(t, d.Allowed)
	assert.Equal(t, "/login?returnUrl=%2Forders%2Fmy-orders", d.RedirectTo)
}

func TestDecidePublicPaths(t *testing.T) {
	for _, path := range []string{"/", "/catalog", "/catalog/antibiotics", "/pharmacies", "/medications/123"} {
		d := Decide("", false, path)
		assert.True(t, d.Allowed, "expected %s to be public", path)
	}
}

func TestDecideGuestOnly(t *testing.T) {
	// Anonymous users may visit the login page.
	assert.True(t, Decide("", false, "/login").Allowed)
	assert.True(t, Decide("", false, "/register").Allowed)

	// Authenticated users bounce to their role home.
	d := Decide(model.RolePatient, true, "/login")
	assert.False(t, d.Allowed)
	assert.Equal(t, "/profile", d.RedirectTo)

	d = Decide(model.RoleSuperAdmin, true, "/register")
	assert.False(t, d.Allowed)
	assert.Equal(t, "/admin/dashboard", d.RedirectTo)
}

func TestDecideRoleScopedPaths(t *testing.T) {
	tests := []struct {
		role    model.Role
		path    string
		allowed bool
		target  string
	}{
		{model.RoleSuperAdmin, "/admin/dashboard", true, ""},
		{model.RolePatient, "/admin/dashboard", false, "/profile"},
		{model.RolePharmacyAdmin, "/pharmacy/dashboard", true, ""},
		{model.RolePharmacyEmployee, "/pharmacy/orders", true, ""},
		{model.RoleDelivery, "/pharmacy/dashboard", false, "/delivery/dashboard"},
		{model.RoleDelivery, "/delivery/dashboard", true, ""},
		{model.RolePatient, "/delivery/dashboard", false, "/profile"},
		// Authenticated-only paths with no role scope.
		{model.RolePatient, "/orders/my-orders", true, ""},
		{model.RoleDelivery, "/settings", true, ""},
	}

	for _, tt := range tests {
		d := Decide(tt.role, true, tt.path)
		assert.Equal(t, tt.allowed, d.Allowed, "%s on %s", tt.role, tt.path)
		if !tt.allowed {
			assert.Equal(t, tt.target, d.RedirectTo, "%s on %s", tt.role, tt.path)
		}
	}
}

func TestDecideNormalizesPaths(t *testing.T) {
	assert.True(t, Decide(model.RoleSuperAdmin, true, "/admin/dashboard/").Allowed)
	assert.True(t, Decide(model.RoleSuperAdmin, true, "admin/dashboard").Allowed)
	assert.True(t, Decide("", false, "/catalog?category=antibiotics").Allowed)

	d := Decide("", false, "")
	assert.True(t, d.Allowed)
}

func TestRoleHome(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", RoleHome(model.RoleSuperAdmin))
	assert.Equal(t, "/pharmacy/dashboard", RoleHome(model.RolePharmacyAdmin))
	assert.Equal(t, "/pharmacy/dashboard", RoleHome(model.RolePharmacyEmployee))
	assert.Equal(t, "/delivery/dashboard", RoleHome(model.RoleDelivery))
	assert.Equal(t, "/profile", RoleHome(model.RolePatient))
	assert.Equal(t, LoginPath, RoleHome("UNKNOWN"))
}

type stubChecker struct {
	ok  bool
	err error
}

func (s stubChecker) HasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	return s.ok, s.err
}

func TestDecidePermission(t *testing.T) {
	actor := model.Actor{UserID: uuid.New(), Role: model.RolePharmacyEmployee}

	d := DecidePermission(context.Background(), stubChecker{ok: true}, actor, "catalog:manage")
	assert.True(t, d.Allowed)

	d = DecidePermission(context.Background(), stubChecker{ok: false}, actor, "catalog:manage")
	assert.False(t, d.Allowed)
	assert.Equal(t, "/pharmacy/dashboard", d.RedirectTo)
}

func TestDecidePermissionFailsClosed(t *testing.T) {
	actor := model.Actor{UserID: uuid.New(), Role: model.RolePharmacyEmployee}

	// Even a positive answer with an error denies.
	d := DecidePermission(context.Background(), stubChecker{ok: true, err: errors.New("store down")}, actor, "catalog:manage")
	assert.False(t, d.Allowed)
	assert.Equal(t, "/pharmacy/dashboard", d.RedirectTo)
}
