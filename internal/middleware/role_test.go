package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/farmland-registry/internal/model"
)

func runRoleGuard(t *testing.T, u *model.User, required ...string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if u != nil {
		c.Set(userContextKey, u)
	}

	called := false
	h := RequireRole(required...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec, called
}

func TestRequireRoleNoSession(t *testing.T) {
	rec, called := runRoleGuard(t, nil, model.RoleAdmin)
	if called {
		t.Fatal("handler ran without a session")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRoleDenied(t *testing.T) {
	u := &model.User{ID: 1, Roles: []model.Role{{Name: model.RoleFarmer}}}
	rec, called := runRoleGuard(t, u, model.RoleAdmin)
	if called {
		t.Fatal("handler ran without the required role")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRoleGranted(t *testing.T) {
	u := &model.User{ID: 1, Roles: []model.Role{{Name: model.RoleAdmin}}}
	_, called := runRoleGuard(t, u, model.RoleAdmin)
	if !called {
		t.Fatal("handler did not run for an admin")
	}
}

func TestRequireRoleAnyOf(t *testing.T) {
	u := &model.User{ID: 1, Roles: []model.Role{{Name: model.RoleFarmer}}}
	_, called := runRoleGuard(t, u, model.RoleAdmin, model.RoleFarmer)
	if !called {
		t.Fatal("handler did not run when one of the roles matched")
	}
}

func TestRequireRoleUserWithNoRoles(t *testing.T) {
	rec, called := runRoleGuard(t, &model.User{ID: 2}, model.RoleFarmer)
	if called {
		t.Fatal("handler ran for a user with no assignments")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
