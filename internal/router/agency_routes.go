package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/handler"
	"github.com/iliyamo/cleaning-booking/internal/middleware"
	"github.com/iliyamo/cleaning-booking/internal/model"
)

// RegisterAgencies mounts /api/agencies. Any authenticated user may read;
// mutations are ADMIN only.
func RegisterAgencies(e *echo.Echo, h *handler.AgencyHandler, auth echo.MiddlewareFunc) {
	g := e.Group("/api/agencies", auth)
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	admin := middleware.RequireRole(model.RoleAdmin)
	g.POST("", h.Create, admin)
	g.PUT("/:id", h.Update, admin)
	g.PATCH("/:id/deactivate", h.Deactivate, admin)
	g.PATCH("/:id/reactivate", h.Reactivate, admin)
	g.POST("/assign-user", h.AssignUser, admin)
	g.DELETE("/users/:userId", h.RemoveUser, admin)
}
