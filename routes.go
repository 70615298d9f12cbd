package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/xmidt-org/arrange/arrangehttp"
	"github.com/xmidt-org/candlelight"
	"github.com/xmidt-org/httpaux"
	"github.com/xmidt-org/touchstone/touchhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/fx"

	"github.com/nanbuonafina/chamados-financeiro/api"
)

type RoutesIn struct {
	fx.In
	PrimaryMetrics touchhttp.ServerInstrumenter `name:"servers.primary.metrics"`
	PrimaryRouter  PrimaryRouterIn
}

type RoutesOut struct {
	fx.Out
	Primary arrangehttp.Option[http.Server] `group:"servers.primary.options"`
}

type PrimaryRouterIn struct {
	fx.In
	AuthChain alice.Chain  `name:"auth_chain"`
	Metrics   http.Handler `name:"metrics_handler"`
	// Tracing will be used to set up tracing instrumentation code.
	Tracing  candlelight.Tracing
	Handlers PrimaryHandlersIn
}

type PrimaryHandlersIn struct {
	fx.In
	Empresas        api.Handler `name:"empresas_handler"`
	Parceiros       api.Handler `name:"parceiros_handler"`
	Produtos        api.Handler `name:"produtos_handler"`
	Entidades       api.Handler `name:"entidades_handler"`
	TiposNegociacao api.Handler `name:"tipos_negociacao_handler"`

	Naturezas        api.Handler `name:"naturezas_handler"`
	CentrosResultado api.Handler `name:"centros_resultado_handler"`
	Projetos         api.Handler `name:"projetos_handler"`
	Notas            api.Handler `name:"notas_handler"`
}

func provideCoreEndpoints() fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name: "servers.primary.metrics",
			Target: touchhttp.ServerBundle{}.NewInstrumenter(
				touchhttp.ServerLabel, "primary",
			),
		},
		func(in RoutesIn) RoutesOut {
			return RoutesOut{
				Primary: providePrimaryOption(in),
			}
		},
	)
}

func providePrimaryOption(in RoutesIn) arrangehttp.Option[http.Server] {
	return arrangehttp.AsOption[http.Server](
		func(s *http.Server) {
			s.Handler = in.PrimaryMetrics.Then(newPrimaryRouter(in.PrimaryRouter))
		},
	)
}

// newPrimaryRouter mounts every handler the web tier consumes. The lister and
// nota endpoints sit behind the session-token chain; health and metrics stay
// open.
func newPrimaryRouter(in PrimaryRouterIn) *mux.Router {
	router := mux.NewRouter()

	options := []otelmux.Option{
		otelmux.WithTracerProvider(in.Tracing.TracerProvider()),
		otelmux.WithPropagators(in.Tracing.Propagator()),
	}
	router.Use(otelmux.Middleware("server_primary", options...))

	router.Handle("/health", httpaux.ConstantHandler{StatusCode: http.StatusOK}).Methods(http.MethodGet)
	router.Handle("/metrics", in.Metrics).Methods(http.MethodGet)

	r := router.PathPrefix("/" + apiBase).Subrouter()
	r.Handle("/empresas", in.AuthChain.Then(in.Handlers.Empresas)).Methods(http.MethodGet)
	r.Handle("/parceiros", in.AuthChain.Then(in.Handlers.Parceiros)).Methods(http.MethodGet)
	r.Handle("/produtos", in.AuthChain.Then(in.Handlers.Produtos)).Methods(http.MethodGet)
	r.Handle("/entidades", in.AuthChain.Then(in.Handlers.Entidades)).Methods(http.MethodGet)
	r.Handle("/tipos-negociacao", in.AuthChain.Then(in.Handlers.TiposNegociacao)).Methods(http.MethodGet)
	r.Handle("/naturezas", in.AuthChain.Then(in.Handlers.Naturezas)).Methods(http.MethodGet)
	r.Handle("/centros-resultado", in.AuthChain.Then(in.Handlers.CentrosResultado)).Methods(http.MethodGet)
	r.Handle("/projetos", in.AuthChain.Then(in.Handlers.Projetos)).Methods(http.MethodGet)
	r.Handle("/notas", in.AuthChain.Then(in.Handlers.Notas)).Methods(http.MethodPost)
	return router
}
