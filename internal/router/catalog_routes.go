package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/handler"
)

// RegisterCatalog mounts the read-only catalog. Responses are cached after
// authentication so anonymous callers never reach the cache.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, auth, cache echo.MiddlewareFunc) {
	e.GET("/api/categories", h.Categories, auth, cache)
	e.GET("/api/services", h.Services, auth, cache)
	e.GET("/api/services/:slug", h.ServiceBySlug, auth, cache)
}
