package config

import (
	"errors"

	"github.com/spf13/viper"

	pkgconfig "github.com/Skotchmaster/shopfront/pkg/config"
	"github.com/Skotchmaster/shopfront/pkg/hash"
)

// Exposure of the GET / listing of all identities.
const (
	ListPublic        = "public"
	ListAuthenticated = "authenticated"
	ListDisabled      = "disabled"
)

type Config struct {
	pkgconfig.Base

	ListAccess     string
	PasswordHasher string
	BcryptCost     int
}

func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("USERS_LIST_ACCESS", ListAuthenticated)

	base, err := pkgconfig.LoadBase(v, "user")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Base:           base,
		ListAccess:     v.GetString("USERS_LIST_ACCESS"),
		PasswordHasher: v.GetString("PASSWORD_HASHER"),
		BcryptCost:     v.GetInt("BCRYPT_COST"),
	}
	if err := errors.Join(
		pkgconfig.OneOf(cfg.ListAccess, "USERS_LIST_ACCESS", ListPublic, ListAuthenticated, ListDisabled),
		pkgconfig.OneOf(cfg.PasswordHasher, "PASSWORD_HASHER", hash.Bcrypt, hash.Argon2id),
	); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
