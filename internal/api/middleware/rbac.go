package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartretail/storefront/internal/core/domain"
)

// RBAC lets through callers whose role is one of allowedRoles and answers
// everyone else with 403 and denyMessage.
func RBAC(denyMessage string, allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": denyMessage})
			}
			return next(c)
		}
	}
}
