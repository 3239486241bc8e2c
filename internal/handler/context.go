package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

const defaultTimeout = 5 * time.Second

// requestContext bounds the downstream calls of one request.
func requestContext(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), d)
}
