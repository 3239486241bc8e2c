package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/repository"
	"github.com/iliyamo/cleaning-booking/internal/service"
	"github.com/iliyamo/cleaning-booking/internal/utils"
)

// AccessVerifier checks an access token's signature and expiry.
type AccessVerifier interface {
	VerifyAccessToken(raw string) (*utils.AccessClaims, error)
}

// UserLookup loads the account behind a token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Auth validates the Bearer access token, confirms the account still
// exists and is active, and stores a Principal on the context. The role
// comes from the database so a role change applies without a new token.
func Auth(tokens AccessVerifier, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return fmt.Errorf("%w: missing bearer token", service.ErrUnauthenticated)
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if raw == "" {
				return fmt.Errorf("%w: missing bearer token", service.ErrUnauthenticated)
			}

			claims, err := tokens.VerifyAccessToken(raw)
			if err != nil {
				return err
			}
			u, err := users.GetByID(c.Request().Context(), claims.UserID)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: user not found", service.ErrUnauthenticated)
			}
			if err != nil {
				return err
			}
			if u.Deleted() {
				return fmt.Errorf("%w: account is deactivated", service.ErrUnauthenticated)
			}

			setPrincipal(c, Principal{UserID: u.ID, Role: u.Role})
			return next(c)
		}
	}
}
