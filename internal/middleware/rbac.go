package middleware

import (
	"net/http"

	"legalizador/internal/catalog"
	"legalizador/internal/common"

	"github.com/labstack/echo/v4"
)

// RequireRole lets the request through only when the authenticated user
// holds one of roles. Roles may be given as stored values or labels.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[catalog.RoleFromLabel(r)] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if _, ok := common.GetUserIDFromContext(ctx); !ok {
				return common.SendUnauthorizedError(c)
			}
			role, ok := common.GetUserRoleFromContext(ctx)
			if !ok || !allowed[catalog.RoleFromLabel(role)] {
				return c.JSON(http.StatusForbidden, common.CreateErrorResponse("FORBIDDEN", "Insufficient permissions", nil))
			}

			return next(c)
		}
	}
}

// RequireAdministrator is RequireRole for the administrator role.
func RequireAdministrator() echo.MiddlewareFunc {
	return RequireRole(catalog.RoleAdministrator)
}
