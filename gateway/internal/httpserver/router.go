package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/pkg/server"
)

type Deps struct {
	AuthURL    string
	UserURL    string
	CartURL    string
	ProductURL string

	ProxyTimeout time.Duration
}

// Register mounts one reverse proxy per backend. The gateway does not
// authenticate; each service checks bearer tokens itself.
func Register(e *echo.Echo, d *Deps) error {
	server.Health(e, nil)

	routes := []struct {
		prefix string
		target string
	}{
		{"/api/auth", d.AuthURL},
		{"/api/users", d.UserURL},
		{"/api/cart", d.CartURL},
		{"/api/products", d.ProductURL},
	}

	for _, r := range routes {
		proxy, err := newProxy(r.target, r.prefix, d.ProxyTimeout)
		if err != nil {
			return err
		}
		e.Any(r.prefix, proxy)
		e.Any(r.prefix+"/*", proxy)
	}
	return nil
}
