package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/service"
)

const refreshCookie = "refreshToken"

// AuthHandler serves registration, login, token refresh, logout and both
// password reset flows.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *service.AccountService
	Tokens   *service.TokenService
	Resets   *service.PasswordResetService
}

func NewAuthHandler(cfg config.Config, accounts *service.AccountService, tokens *service.TokenService, resets *service.PasswordResetService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: accounts, Tokens: tokens, Resets: resets}
}

type registerReq struct {
	Name     string  `json:"name" validate:"required,min=3,max=120"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Postcode *string `json:"postcode" validate:"omitempty,max=16"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	Language string  `json:"language"`
	AgencyID *string `json:"agencyId"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type emailReq struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyCodeReq struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=4,numeric"`
}

type resetPasswordReq struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=4,numeric"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type resetWithTokenReq struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type accessResp struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (h *AuthHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return requestContext(c, h.Cfg.RequestTimeout)
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    raw,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.Tokens.RefreshTTL() / time.Second),
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// presentedRefresh reads the refresh token from the cookie, falling back to
// a JSON body for non-browser clients.
func presentedRefresh(c echo.Context) (string, error) {
	if ck, err := c.Cookie(refreshCookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	var req refreshReq
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return "", fmt.Errorf("%w: malformed request body", service.ErrValidation)
		}
	}
	return req.RefreshToken, nil
}

// Register creates a customer account. The response excludes the password.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Accounts.Register(ctx, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Postcode: req.Postcode,
		Address:  req.Address,
		Language: req.Language,
		AgencyID: req.AgencyID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "user registered", "user": toUser(u)})
}

// Login returns an access token and sets the refresh cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	pair, _, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	h.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(http.StatusOK, accessResp{AccessToken: pair.AccessToken, ExpiresAt: pair.AccessExpiresAt})
}

// Refresh rotates the presented refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, err := presentedRefresh(c)
	if err != nil {
		return err
	}
	if raw == "" {
		return fmt.Errorf("%w: refresh token required", service.ErrUnauthenticated)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	pair, _, err := h.Tokens.Rotate(ctx, raw)
	if err != nil {
		h.clearRefreshCookie(c)
		return err
	}
	h.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(http.StatusOK, accessResp{AccessToken: pair.AccessToken, ExpiresAt: pair.AccessExpiresAt})
}

// Logout revokes the presented refresh token and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, err := presentedRefresh(c)
	if err != nil {
		return err
	}
	if raw == "" {
		return fmt.Errorf("%w: no refresh token presented", service.ErrValidation)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, raw); err != nil {
		return err
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

const resetSent = "if the email is registered, a reset message has been sent"

func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req emailReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Resets.RequestReset(ctx, req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": resetSent})
}

func (h *AuthHandler) VerifyResetCode(c echo.Context) error {
	var req verifyCodeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Resets.VerifyCode(ctx, req.Email, req.Code); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "code verified"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Resets.ResetPassword(ctx, req.Email, req.Code, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Resets.ForgotPassword(ctx, req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": resetSent})
}

func (h *AuthHandler) ResetPasswordWithToken(c echo.Context) error {
	var req resetWithTokenReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Resets.ResetPasswordWithToken(ctx, req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
