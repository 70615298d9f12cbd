package api

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/nanbuonafina/chamados-financeiro/sankhya"
)

// ProvideHandlers fetches all dependencies and builds the handlers the web
// tier mounts on the primary router.
func ProvideHandlers() fx.Option {
	return fx.Provide(
		validator.New,
		newCatalog,

		fx.Annotated{
			Name: "empresas_handler",
			Target: func(c Catalog) Handler {
				return newOptionsHandler(c.ListCompanies)
			},
		},
		fx.Annotated{
			Name: "parceiros_handler",
			Target: func(c Catalog) Handler {
				return newOptionsHandler(c.ListSuppliers)
			},
		},
		fx.Annotated{
			Name: "naturezas_handler",
			Target: func(c Catalog) Handler {
				return newOptionsHandler(c.ListNatures)
			},
		},
		fx.Annotated{
			Name: "centros_resultado_handler",
			Target: func(c Catalog) Handler {
				return newOptionsHandler(c.ListCostCenters)
			},
		},
		fx.Annotated{
			Name: "projetos_handler",
			Target: func(c Catalog) Handler {
				return newOptionsHandler(c.ListProjects)
			},
		},
		fx.Annotated{
			Name: "tipos_negociacao_handler",
			Target: func(c Catalog) Handler {
				return newOptionsHandler(func(ctx context.Context) ([]sankhya.Option, error) {
					return c.ListEntities(ctx, sankhya.EntityTipoNegociacao)
				})
			},
		},
		fx.Annotated{
			Name:   "produtos_handler",
			Target: newListProductsHandler,
		},
		fx.Annotated{
			Name:   "entidades_handler",
			Target: newListEntitiesHandler,
		},
		fx.Annotated{
			Name:   "notas_handler",
			Target: newCreateNotaHandler,
		},
	)
}

// newCatalog wraps the Sankhya client with the lister cache when one is
// configured.
func newCatalog(client *sankhya.Client, v *viper.Viper) Catalog {
	if ttl := v.GetDuration("catalog.cacheTTL"); ttl > 0 {
		return NewCachedCatalog(client, ttl)
	}
	return client
}
