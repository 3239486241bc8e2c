package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/middleware"
	"github.com/iliyamo/cleaning-booking/internal/service"
)

// AccountHandler serves the authenticated user's own account plus the
// role-gated dashboard and admin listing.
type AccountHandler struct {
	Accounts *service.AccountService
	Timeout  time.Duration
	Auth     *AuthHandler // cookie settings on account deletion
}

func NewAccountHandler(accounts *service.AccountService, timeout time.Duration, auth *AuthHandler) *AccountHandler {
	return &AccountHandler{Accounts: accounts, Timeout: timeout, Auth: auth}
}

type profileReq struct {
	Name     *string `json:"name" validate:"omitempty,min=3,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Postcode *string `json:"postcode" validate:"omitempty,max=16"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	Language *string `json:"language"`
}

// principal fetches the caller stored by middleware.Auth.
func principal(c echo.Context) (middleware.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return middleware.Principal{}, fmt.Errorf("%w: authentication required", service.ErrUnauthenticated)
	}
	return p, nil
}

func (h *AccountHandler) Profile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	u, err := h.Accounts.Profile(ctx, p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(u))
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req profileReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	u, err := h.Accounts.UpdateProfile(ctx, p.UserID, service.ProfileUpdate{
		Name:     req.Name,
		Phone:    req.Phone,
		Postcode: req.Postcode,
		Address:  req.Address,
		Language: req.Language,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// DeleteAccount soft deletes the caller's account and drops the refresh
// cookie.
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	if err := h.Accounts.DeleteAccount(ctx, p.UserID); err != nil {
		return err
	}
	if h.Auth != nil {
		h.Auth.clearRefreshCookie(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}

func (h *AccountHandler) Dashboard(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "welcome to the dashboard",
		"userId":  p.UserID,
		"role":    p.Role,
	})
}

func (h *AccountHandler) ListUsers(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	users, err := h.Accounts.ListUsers(ctx)
	if err != nil {
		return err
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	return c.JSON(http.StatusOK, out)
}
