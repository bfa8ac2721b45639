package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartretail/storefront/internal/api/middleware"
	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/sandbox"
)

// ctxCaller extracts the identity injected by the Auth middleware. A missing
// user id means the route was registered without Auth.
func ctxCaller(c echo.Context) (sandbox.Caller, error) {
	userID, _ := c.Get(middleware.ContextUserID).(int)
	if userID <= 0 {
		return sandbox.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	role, _ := c.Get(middleware.ContextRole).(string)
	return sandbox.Caller{UserID: userID, Role: domain.Role(role)}, nil
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int, error) {
	var id int
	if err := echo.PathParamsBinder(c).MustInt(name, &id).BindError(); err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return id, nil
}

// bindQuery binds and validates query parameters into q.
func bindQuery(c echo.Context, q any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
