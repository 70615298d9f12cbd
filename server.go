package main

import (
	"github.com/spf13/viper"
	"github.com/xmidt-org/arrange/arrangehttp"
	"go.uber.org/fx"
)

// provideServer assembles the primary server from its viper config and the
// option group routes.go contributes. arrangehttp owns the listener lifecycle.
func provideServer() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotated{
				Name: "servers.primary.config",
				Target: func(v *viper.Viper) (arrangehttp.ServerConfig, error) {
					var config arrangehttp.ServerConfig
					err := v.UnmarshalKey("servers.primary", &config)
					return config, err
				},
			},
		),
		provideCoreEndpoints(),
		arrangehttp.ProvideServer("servers.primary"),
	)
}
