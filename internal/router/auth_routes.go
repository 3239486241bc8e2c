package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/handler"
	"github.com/iliyamo/cleaning-booking/internal/middleware"
	"github.com/iliyamo/cleaning-booking/internal/model"
)

// RegisterAuth mounts /api/auth. The whole group is rate limited; session
// endpoints are public and account endpoints require an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, acc *handler.AccountHandler, auth, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limit)

	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh_token", a.Refresh)
	g.POST("/logout", a.Logout)

	g.POST("/request-password-reset", a.RequestPasswordReset)
	g.POST("/verify-reset-code", a.VerifyResetCode)
	g.POST("/reset-password", a.ResetPassword)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password/token", a.ResetPasswordWithToken)

	g.GET("/profile", acc.Profile, auth)
	g.PUT("/profile", acc.UpdateProfile, auth)
	g.DELETE("/account", acc.DeleteAccount, auth)
	g.GET("/dashboard", acc.Dashboard, auth, middleware.RequireRole(model.RoleEmployee, model.RoleAdmin))
	g.GET("/admin/users", acc.ListUsers, auth, middleware.RequireRole(model.RoleAdmin))
}
