package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/sandbox"
)

type AuthHandler struct {
	auth *sandbox.Authenticator
}

func NewAuthHandler(auth *sandbox.Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req domain.Registration
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	res, err := h.auth.Register(req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req domain.Credentials
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	res, err := h.auth.Login(req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	user, err := h.auth.Me(caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /auth/users.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	users, err := h.auth.ListUsers(caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateRole handles PUT /auth/users/:id/role.
func (h *AuthHandler) UpdateRole(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req domain.RoleUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	res, err := h.auth.UpdateRole(caller, id, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Deactivate handles PUT /auth/users/:id/deactivate.
func (h *AuthHandler) Deactivate(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	res, err := h.auth.DeactivateUser(caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /auth/users/:id.
func (h *AuthHandler) Delete(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	res, err := h.auth.DeleteUser(caller, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
