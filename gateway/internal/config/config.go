package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/Skotchmaster/shopfront/pkg/config"
)

type Config struct {
	ServiceName string
	ListenAddr  string
	LogLevel    string

	AuthURL    string
	UserURL    string
	CartURL    string
	ProductURL string

	CORSOrigins  []string
	ProxyTimeout time.Duration
}

func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("PROXY_TIMEOUT", 30*time.Second)

	cfg := Config{
		ServiceName: pkgconfig.EnvDefault(v, "SERVICE_NAME", "gateway"),
		ListenAddr:  v.GetString("LISTEN_ADDR"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		AuthURL:    v.GetString("AUTH_SERVICE_URL"),
		UserURL:    v.GetString("USER_SERVICE_URL"),
		CartURL:    v.GetString("CART_SERVICE_URL"),
		ProductURL: v.GetString("PRODUCT_SERVICE_URL"),

		CORSOrigins:  pkgconfig.CSV(v.GetString("CORS_ALLOW_ORIGINS")),
		ProxyTimeout: v.GetDuration("PROXY_TIMEOUT"),
	}

	if err := errors.Join(
		pkgconfig.NonEmpty(cfg.AuthURL, "AUTH_SERVICE_URL"),
		pkgconfig.NonEmpty(cfg.UserURL, "USER_SERVICE_URL"),
		pkgconfig.NonEmpty(cfg.CartURL, "CART_SERVICE_URL"),
		pkgconfig.NonEmpty(cfg.ProductURL, "PRODUCT_SERVICE_URL"),
		pkgconfig.Positive(cfg.ProxyTimeout, "PROXY_TIMEOUT"),
	); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
