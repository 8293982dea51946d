package httpserver

import (
	"context"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/pkg/server"
)

type Deps struct {
	CartHandler *CartHTTP
	Session     *middleware.SessionAuth
	Ready       func(ctx context.Context) error
}

// Register mounts the cart routes at the root; the gateway strips /api/cart.
func Register(e *echo.Echo, d *Deps) {
	server.Health(e, d.Ready)

	auth := d.Session.RequireAuth

	e.GET("/", d.CartHandler.GetCart, auth)
	e.POST("/", d.CartHandler.AddToCart, auth)
	e.DELETE("/", d.CartHandler.ClearCart, auth)
	e.PUT("/:productId", d.CartHandler.UpdateCartItem, auth)
	e.DELETE("/:productId", d.CartHandler.RemoveFromCart, auth)
}
