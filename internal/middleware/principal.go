package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/model"
)

const principalKey = "principal"

// Principal is the authenticated caller attached to a request by Auth.
type Principal struct {
	UserID string
	Role   model.Role
}

// PrincipalFrom returns the caller stored by Auth.
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok && p.UserID != ""
}

func setPrincipal(c echo.Context, p Principal) { c.Set(principalKey, p) }

// currentUserID keys rate limits and cache entries; "anon" when nobody is
// authenticated yet.
func currentUserID(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok {
		return p.UserID
	}
	return "anon"
}
