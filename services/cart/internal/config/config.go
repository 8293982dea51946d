package config

import (
	"github.com/spf13/viper"

	pkgconfig "github.com/Skotchmaster/shopfront/pkg/config"
)

type Config struct {
	pkgconfig.Base

	// ProductServiceURL is optional. Without it product ids are not checked
	// and carts carry no product details.
	ProductServiceURL string
}

func Load(v *viper.Viper) (Config, error) {
	base, err := pkgconfig.LoadBase(v, "cart")
	if err != nil {
		return Config{}, err
	}
	return Config{
		Base:              base,
		ProductServiceURL: v.GetString("PRODUCT_SERVICE_URL"),
	}, nil
}
