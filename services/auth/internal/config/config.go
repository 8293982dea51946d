package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/Skotchmaster/shopfront/pkg/config"
	"github.com/Skotchmaster/shopfront/pkg/hash"
	"github.com/Skotchmaster/shopfront/pkg/mail"
)

// MailModeLog sends no mail at all; every password reset request then
// fails with a delivery error.
const (
	MailModeSMTP = "smtp"
	MailModeLog  = "log"
)

type Config struct {
	pkgconfig.Base

	PasswordHasher string
	BcryptCost     int

	ResetTokenTTL time.Duration
	ResetURLBase  string

	MailMode string
	SMTP     mail.SMTPConfig
}

func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("RESET_URL_BASE", "http://localhost:3000/reset-password")
	v.SetDefault("MAIL_MODE", MailModeSMTP)
	v.SetDefault("SMTP_PORT", 587)

	base, err := pkgconfig.LoadBase(v, "auth")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Base:           base,
		PasswordHasher: v.GetString("PASSWORD_HASHER"),
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		ResetTokenTTL:  v.GetDuration("RESET_TOKEN_TTL"),
		ResetURLBase:   v.GetString("RESET_URL_BASE"),
		MailMode:       v.GetString("MAIL_MODE"),
		SMTP: mail.SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
		},
	}

	errs := []error{
		pkgconfig.OneOf(cfg.PasswordHasher, "PASSWORD_HASHER", hash.Bcrypt, hash.Argon2id),
		pkgconfig.Positive(cfg.ResetTokenTTL, "RESET_TOKEN_TTL"),
		pkgconfig.NonEmpty(cfg.ResetURLBase, "RESET_URL_BASE"),
		pkgconfig.OneOf(cfg.MailMode, "MAIL_MODE", MailModeSMTP, MailModeLog),
	}
	if cfg.MailMode == MailModeSMTP {
		errs = append(errs,
			pkgconfig.NonEmpty(cfg.SMTP.Host, "SMTP_HOST"),
			pkgconfig.NonEmpty(cfg.SMTP.From, "MAIL_FROM"),
		)
		if cfg.SMTP.Port <= 0 {
			errs = append(errs, fmt.Errorf("env SMTP_PORT must be positive, got %d", cfg.SMTP.Port))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
