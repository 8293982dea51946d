package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	pkgconfig "github.com/Skotchmaster/shopfront/pkg/config"
	"github.com/Skotchmaster/shopfront/pkg/db"
	"github.com/Skotchmaster/shopfront/pkg/events"
	"github.com/Skotchmaster/shopfront/pkg/hash"
	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/mail"
	"github.com/Skotchmaster/shopfront/pkg/metrics"
	middleware "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/pkg/server"
	"github.com/Skotchmaster/shopfront/pkg/sessions"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
	"github.com/Skotchmaster/shopfront/services/auth/internal/config"
	"github.com/Skotchmaster/shopfront/services/auth/internal/httpserver"
	"github.com/Skotchmaster/shopfront/services/auth/internal/service"
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

	store := identity.NewGormRepo(gdb)
	if err := store.Migrate(initCtx); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}
	cancel()

	hasher, err := hash.New(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}

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

	var mailer mail.Notifier = mail.NewSMTPNotifier(cfg.SMTP, cfg.ResetTokenTTL)
	if cfg.MailMode == config.MailModeLog {
		logger.Warn("mail_delivery_disabled", "mail_mode", cfg.MailMode, "effect", "password reset requests fail")
		mailer = mail.LogNotifier{}
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	m := metrics.New(cfg.ServiceName)

	svc := &service.AuthService{
		Store:        store,
		Hasher:       hasher,
		Tokens:       tok,
		Sessions:     epochs,
		Mailer:       mailer,
		Events:       publisher,
		Metrics:      m,
		ResetTTL:     cfg.ResetTokenTTL,
		ResetURLBase: cfg.ResetURLBase,
		CallTimeout:  cfg.CallTimeout,
	}

	e := server.New(logger, m)
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		Session:     middleware.NewSessionAuth(tok, cfg.CallTimeout),
		Ready:       svc.Ready,
	})

	logger.Info("starting", "addr", cfg.ListenAddr, "mail_mode", cfg.MailMode, "hasher", cfg.PasswordHasher)
	if err := server.Run(e, cfg.ListenAddr); err != nil {
		logger.Error("server stopped", "error", err)
	}
}
