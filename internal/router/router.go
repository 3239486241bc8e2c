// Package router assembles the echo instance: global middleware, error
// handling and every route group of the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/handler"
	"github.com/iliyamo/cleaning-booking/internal/metrics"
	"github.com/iliyamo/cleaning-booking/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth     *handler.AuthHandler
	Account  *handler.AccountHandler
	Catalog  *handler.CatalogHandler
	Bookings *handler.BookingHandler
	Agencies *handler.AgencyHandler
}

// Deps carries what the middleware chain needs. Redis may be nil, in which
// case rate limiting and caching pass requests through.
type Deps struct {
	Config config.Config
	Log    *zap.Logger
	Redis  *redis.Client
	Tokens middleware.AccessVerifier
	Users  middleware.UserLookup
}

// New builds the echo instance with every route registered.
func New(d Deps, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	auth := middleware.Auth(d.Tokens, d.Users)

	RegisterRoutes(e)
	RegisterAuth(e, h.Auth, h.Account, auth, middleware.RateLimit(d.Config.RateLimit, d.Redis, d.Log))
	RegisterCatalog(e, h.Catalog, auth, middleware.Cache(d.Config.Cache, d.Redis, d.Log))
	RegisterBookings(e, h.Bookings, auth, d.Config.Storage)
	RegisterAgencies(e, h.Agencies, auth)
	return e
}

// RegisterRoutes mounts the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/api/health", handler.Health)
	e.GET("/metrics", metrics.Handler())
}
