package main

import (
	"log"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	pkgconfig "github.com/Skotchmaster/shopfront/pkg/config"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/metrics"
	"github.com/Skotchmaster/shopfront/pkg/server"

	"github.com/Skotchmaster/shopfront/gateway/internal/config"
	"github.com/Skotchmaster/shopfront/gateway/internal/httpserver"
	"github.com/Skotchmaster/shopfront/gateway/internal/middleware"
)

func main() {
	cfg, err := config.Load(pkgconfig.NewViper(".env"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = cfg.ProxyTimeout + 5*time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	for _, m := range middleware.Common(logger, cfg.CORSOrigins) {
		e.Use(m)
	}
	m := metrics.New(cfg.ServiceName)
	e.Use(m.Middleware())
	e.GET("/metrics", m.Handler())

	if err := httpserver.Register(e, &httpserver.Deps{
		AuthURL:      cfg.AuthURL,
		UserURL:      cfg.UserURL,
		CartURL:      cfg.CartURL,
		ProductURL:   cfg.ProductURL,
		ProxyTimeout: cfg.ProxyTimeout,
	}); err != nil {
		log.Fatal(err)
	}

	logger.Info("starting", "addr", cfg.ListenAddr)
	if err := server.Run(e, cfg.ListenAddr); err != nil {
		logger.Error("server stopped", "error", err)
	}
}
