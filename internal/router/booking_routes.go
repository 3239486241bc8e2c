package router

import (
	"fmt"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/handler"
)

// RegisterBookings mounts the customer's bookings. The body limit leaves
// room for every allowed photo plus the form fields.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, auth echo.MiddlewareFunc, storage config.StorageConfig) {
	g := e.Group("/api/bookings", auth)
	g.POST("", h.Create, echomw.BodyLimit(uploadLimit(storage)))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

func uploadLimit(s config.StorageConfig) string {
	total := int64(s.MaxPhotos)*s.MaxPhotoBytes + 1<<20
	return fmt.Sprintf("%dK", total/1024+1)
}
