package httpserver

import (
	"context"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/pkg/server"
)

type Deps struct {
	ProductHandler *ProductHTTP
	Session        *middleware.SessionAuth
	Ready          func(ctx context.Context) error
}

// Register mounts the product routes at the root; the gateway strips
// /api/products. Reads are public, writes need a bearer token.
func Register(e *echo.Echo, d *Deps) {
	server.Health(e, d.Ready)

	auth := d.Session.RequireAuth

	e.GET("/", d.ProductHandler.GetProducts)
	e.GET("/search", d.ProductHandler.SearchProducts)
	e.GET("/:id", d.ProductHandler.GetProduct)

	e.POST("/", d.ProductHandler.CreateProduct, auth)
	e.PATCH("/:id", d.ProductHandler.PatchProduct, auth)
	e.DELETE("/:id", d.ProductHandler.DeleteProduct, auth)
}
