package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/farmland-registry/internal/middleware"
	"github.com/iliyamo/farmland-registry/internal/queue"
	"github.com/iliyamo/farmland-registry/internal/repository"
	queue_publisher "github.com/iliyamo/farmland-registry/internal/service"
)

// RoleHandler implements the admin-only role management endpoints.
type RoleHandler struct {
	Roles *repository.RoleRepo
}

func NewRoleHandler(r *repository.RoleRepo) *RoleHandler {
	return &RoleHandler{Roles: r}
}

type roleReq struct {
	RoleName string `json:"role_name"`
}

// CreateRole handles POST /auth/roles/ and creates a new named role.
func (h *RoleHandler) CreateRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.RoleName)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role_name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.CreateRole(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrRoleExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "role already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create role failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role created", "role": role})
}

// DeleteRole handles DELETE /auth/roles/:id.  Assignments referencing the
// role disappear with it, which any affected session notices on its next
// request.
func (h *RoleHandler) DeleteRole(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roles.DeleteRole(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete role failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role deleted"})
}

// AssignRole handles POST /auth/:user_id/roles.  The grant is strictly
// additive; granting a role the user already holds is a 409.
func (h *RoleHandler) AssignRole(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.RoleName)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role_name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roles.AssignRole(ctx, userID, name); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrRoleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
		case errors.Is(err, repository.ErrRoleAssigned):
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already has this role"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign role failed"})
	}

	// Audit trail is best effort: a broker outage must not fail the grant.
	var grantedBy uint64
	if admin, ok := middleware.CurrentUser(c); ok {
		grantedBy = admin.ID
	}
	_ = queue_publisher.PublishRoleGranted(c.Request().Context(), queue.RoleGrantedEvent{
		UserID:    userID,
		Role:      name,
		GrantedBy: grantedBy,
		GrantedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "role assigned"})
}

// RevokeRole handles DELETE /auth/:user_id/roles/:role_name.  Because
// authorization reloads assignments on every request, the revocation is
// effective immediately.
func (h *RoleHandler) RevokeRole(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	name := strings.TrimSpace(c.Param("role_name"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roles.RevokeRole(ctx, userID, name); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user does not have this role"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke role failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role revoked"})
}
