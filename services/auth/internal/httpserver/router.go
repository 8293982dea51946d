package httpserver

import (
	"context"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/pkg/server"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Session     *middleware.SessionAuth
	Ready       func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	server.Health(e, d.Ready)

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.GET("/verify", d.AuthHandler.Verify)
	e.POST("/refresh", d.AuthHandler.Refresh)
	e.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	e.POST("/reset-password", d.AuthHandler.ResetPassword)

	e.POST("/logout", d.AuthHandler.LogOut, d.Session.RequireAuth)
}
