package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/service"
)

// RequireRole lets the request through only when the Principal holds one
// of roles. It must run after Auth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return fmt.Errorf("%w: authentication required", service.ErrUnauthenticated)
			}
			if !allowed[p.Role] {
				return fmt.Errorf("%w: role %s may not access this resource", service.ErrForbidden, p.Role)
			}
			return next(c)
		}
	}
}
