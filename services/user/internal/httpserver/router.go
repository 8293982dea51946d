package httpserver

import (
	"context"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/pkg/server"
	"github.com/Skotchmaster/shopfront/services/user/internal/config"
)

type Deps struct {
	UserHandler *UserHTTP
	Session     *middleware.SessionAuth
	ListAccess  string
	Ready       func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	server.Health(e, d.Ready)

	switch d.ListAccess {
	case config.ListPublic:
		e.GET("/", d.UserHandler.List)
	case config.ListDisabled:
		// static route so "/" cannot fall through to "/:id"
		e.GET("/", func(c echo.Context) error { return echo.ErrNotFound })
	default:
		e.GET("/", d.UserHandler.List, d.Session.RequireAuth)
	}

	self := []echo.MiddlewareFunc{d.Session.RequireAuth, middleware.RequireSelf("id")}
	e.GET("/:id", d.UserHandler.Get, self...)
	e.PUT("/:id", d.UserHandler.Update, self...)
	e.DELETE("/:id", d.UserHandler.Delete, self...)
}
