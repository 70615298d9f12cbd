package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/arrange"
	"github.com/xmidt-org/candlelight"
	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nanbuonafina/chamados-financeiro/api"
	"github.com/nanbuonafina/chamados-financeiro/auth"
	"github.com/nanbuonafina/chamados-financeiro/sankhya"
)

const (
	applicationName = "chamados"
	apiBase         = "api/v1"
)

var (
	GitCommit = "undefined"
	Version   = "undefined"
	BuildTime = "undefined"
)

func main() {
	v, logger, err := setup(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := fx.New(
		arrange.LoggerFunc(logger.Sugar().Infof),
		arrange.ForViper(v),
		fx.Supply(logger, v),
		touchstone.Provide(),
		sankhya.ProvideMetrics(),
		api.ProvideHandlers(),
		provideServer(),
		fx.Provide(
			func(v *viper.Viper) (touchstone.Config, error) {
				var config touchstone.Config
				err := v.UnmarshalKey("prometheus", &config)
				return config, err
			},
			func(v *viper.Viper) (sankhya.ClientConfig, error) {
				var config sankhya.ClientConfig
				err := v.UnmarshalKey("sankhya", &config)
				return config, err
			},
			newSankhyaClient,
			fx.Annotated{
				Name:   "auth_chain",
				Target: newAuthChain,
			},
			fx.Annotated{
				Name: "metrics_handler",
				Target: func(g prometheus.Gatherer) http.Handler {
					return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
				},
			},
			candlelight.New,
			func(v *viper.Viper) (candlelight.Config, error) {
				var config candlelight.Config
				err := v.UnmarshalKey("tracing", &config)
				if err != nil {
					return candlelight.Config{}, err
				}
				config.ApplicationName = applicationName
				return config, nil
			},
		),
		fx.Invoke(
			wireClientMeasures,
		),
	)

	switch err := app.Err(); {
	case errors.Is(err, pflag.ErrHelp):
		return
	case err == nil:
		app.Run()
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newSankhyaClient(config sankhya.ClientConfig, logger *zap.Logger) (*sankhya.Client, error) {
	config.Logger = logger
	return sankhya.NewClient(config, sallust.Get)
}

// wireClientMeasures attaches the outbound request counter once the metrics
// registry is up; the client itself never depends on the registry.
func wireClientMeasures(client *sankhya.Client, measures sankhya.Measures) {
	client.SetMeasures(&measures)
}

func newAuthChain(v *viper.Viper, logger *zap.Logger) (alice.Chain, error) {
	var config auth.Config
	if err := v.UnmarshalKey("auth", &config); err != nil {
		return alice.Chain{}, err
	}
	return auth.NewChain(config, logger), nil
}
