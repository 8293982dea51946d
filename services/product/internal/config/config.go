package config

import (
	"github.com/spf13/viper"

	pkgconfig "github.com/Skotchmaster/shopfront/pkg/config"
)

type Config struct {
	pkgconfig.Base

	// Search is disabled when ESURL is empty.
	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("ES_INDEX", "products")

	base, err := pkgconfig.LoadBase(v, "product")
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Base:       base,
		ESURL:      v.GetString("ES_URL"),
		ESUser:     v.GetString("ES_USER"),
		ESPassword: v.GetString("ES_PASSWORD"),
		ESIndex:    v.GetString("ES_INDEX"),
	}
	if cfg.ESURL != "" {
		if err := pkgconfig.NonEmpty(cfg.ESIndex, "ES_INDEX"); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
