package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	pkgconfig "github.com/Skotchmaster/shopfront/pkg/config"
	"github.com/Skotchmaster/shopfront/pkg/db"
	"github.com/Skotchmaster/shopfront/pkg/events"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/metrics"
	middleware "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/pkg/productclient"
	"github.com/Skotchmaster/shopfront/pkg/server"
	"github.com/Skotchmaster/shopfront/pkg/sessions"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
	"github.com/Skotchmaster/shopfront/services/cart/internal/config"
	"github.com/Skotchmaster/shopfront/services/cart/internal/httpserver"
	"github.com/Skotchmaster/shopfront/services/cart/internal/repo"
	"github.com/Skotchmaster/shopfront/services/cart/internal/service"
)

func main() {
	cfg, err := config.Load(pkgconfig.NewViper(".env"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureDatabase(initCtx, cfg.DatabaseURL); err != nil {
		log.Fatalf("db bootstrap error: %v", err)
	}
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close(gdb)

	store := repo.NewGormRepo(gdb)
	if err := store.Migrate(initCtx); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}
	cancel()

	epochs, closeEpochs, err := sessions.NewFromURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}
	defer closeEpochs()

	tok, err := tokens.NewService(cfg.JWTSecret,
		tokens.WithTTL(cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		tokens.WithSessions(epochs),
	)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	m := metrics.New(cfg.ServiceName)

	svc := &service.CartService{
		Repo:        store,
		Events:      publisher,
		Metrics:     m,
		CallTimeout: cfg.CallTimeout,
	}
	if cfg.ProductServiceURL != "" {
		svc.Products = productclient.NewClient(cfg.ProductServiceURL, cfg.CallTimeout)
	}

	e := server.New(logger, m)
	httpserver.Register(e, &httpserver.Deps{
		CartHandler: &httpserver.CartHTTP{Svc: svc},
		Session:     middleware.NewSessionAuth(tok, cfg.CallTimeout),
		Ready:       svc.Ready,
	})

	logger.Info("starting", "addr", cfg.ListenAddr, "product_lookup", cfg.ProductServiceURL != "")
	if err := server.Run(e, cfg.ListenAddr); err != nil {
		logger.Error("server stopped", "error", err)
	}
}
