package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cleaning-booking/internal/service"
)

type CatalogHandler struct {
	Catalog *service.CatalogService
	Timeout time.Duration
}

func NewCatalogHandler(catalog *service.CatalogService, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog, Timeout: timeout}
}

func (h *CatalogHandler) Categories(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	cats, err := h.Catalog.Categories(ctx)
	if err != nil {
		return err
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toCategory(cat))
	}
	return c.JSON(http.StatusOK, out)
}

// Services lists active services, optionally narrowed by ?categorySlug=.
func (h *CatalogHandler) Services(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	svcs, err := h.Catalog.Services(ctx, c.QueryParam("categorySlug"))
	if err != nil {
		return err
	}
	out := make([]serviceResponse, 0, len(svcs))
	for _, s := range svcs {
		out = append(out, toService(s, h.Catalog.ImageURL(s)))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) ServiceBySlug(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	s, err := h.Catalog.ServiceBySlug(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toService(s, h.Catalog.ImageURL(s)))
}
