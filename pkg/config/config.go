package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Base holds the settings every backend service reads.
type Base struct {
	ServiceName string
	ListenAddr  string
	LogLevel    string

	DatabaseURL string

	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CallTimeout time.Duration

	KafkaBrokers []string
	RedisURL     string
}

// NewViper loads the optional env files and returns a viper instance reading
// the process environment with the shared defaults applied.
func NewViper(envFiles ...string) *viper.Viper {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("warning: could not load %s: %v", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ACCESS_TOKEN_TTL", time.Hour)
	v.SetDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("RESET_TOKEN_TTL", time.Hour)
	v.SetDefault("CALL_TIMEOUT", 5*time.Second)
	v.SetDefault("PASSWORD_HASHER", "bcrypt")
	v.SetDefault("BCRYPT_COST", 10)
	return v
}

func LoadBase(v *viper.Viper, serviceName string) (Base, error) {
	b := Base{
		ServiceName: EnvDefault(v, "SERVICE_NAME", serviceName),
		ListenAddr:  v.GetString("LISTEN_ADDR"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		DatabaseURL: v.GetString("DATABASE_URL"),

		JWTSecret:       []byte(v.GetString("JWT_SECRET")),
		AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL: v.GetDuration("REFRESH_TOKEN_TTL"),

		CallTimeout: v.GetDuration("CALL_TIMEOUT"),

		KafkaBrokers: CSV(v.GetString("KAFKA_BROKERS")),
		RedisURL:     v.GetString("REDIS_URL"),
	}

	if err := errors.Join(
		NonEmpty(b.DatabaseURL, "DATABASE_URL"),
		NonEmptyBytes(b.JWTSecret, "JWT_SECRET"),
		Positive(b.AccessTokenTTL, "ACCESS_TOKEN_TTL"),
		Positive(b.RefreshTokenTTL, "REFRESH_TOKEN_TTL"),
		Positive(b.CallTimeout, "CALL_TIMEOUT"),
	); err != nil {
		return Base{}, err
	}
	return b, nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(v *viper.Viper, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return def
}
