package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/skillsharehub/marketplace/internal/core/domain"
)

// RBAC admits requests whose account role is one of roles. It reads the role
// Auth stored on the context, so a request that skipped Auth gets 401 rather
// than 403. Unknown role names are a wiring bug and panic at startup.
func RBAC(roles ...string) echo.MiddlewareFunc {
	if len(roles) == 0 {
		panic("middleware: RBAC needs at least one role")
	}
	for _, r := range roles {
		if !domain.ValidRole(r) {
			panic(fmt.Sprintf("middleware: RBAC given unknown role %q", r))
		}
	}
	roles = slices.Clone(roles)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(string)
			switch {
			case role == "":
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			case !slices.Contains(roles, role):
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
