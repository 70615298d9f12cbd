package api

import (
	"context"

	"github.com/go-kit/kit/endpoint"
	"github.com/nanbuonafina/chamados-financeiro/sankhya"
)

// Catalog is the slice of the Sankhya client the web tier consumes. It exists
// so handlers can be tested against a mock instead of a live gateway.
type Catalog interface {
	ListCompanies(ctx context.Context) ([]sankhya.Option, error)
	ListSuppliers(ctx context.Context) ([]sankhya.Option, error)
	ListProducts(ctx context.Context, description, natureCode string) ([]sankhya.Product, error)
	ListEntities(ctx context.Context, name string) ([]sankhya.Option, error)
	ListNatures(ctx context.Context) ([]sankhya.Option, error)
	ListCostCenters(ctx context.Context) ([]sankhya.Option, error)
	ListProjects(ctx context.Context) ([]sankhya.Option, error)
	SubmitNota(ctx context.Context, nota sankhya.Nota, items []sankhya.NotaItem) (string, error)
}

func newListOptionsEndpoint(list func(context.Context) ([]sankhya.Option, error)) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		return list(ctx)
	}
}

func newListProductsEndpoint(c Catalog) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		productsRequest := request.(*listProductsRequest)
		return c.ListProducts(ctx, productsRequest.description, productsRequest.natureCode)
	}
}

func newListEntitiesEndpoint(c Catalog) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		entitiesRequest := request.(*listEntitiesRequest)
		return c.ListEntities(ctx, entitiesRequest.name)
	}
}

func newCreateNotaEndpoint(c Catalog) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		notaRequest := request.(*createNotaRequest)
		nunota, err := c.SubmitNota(ctx, notaRequest.Nota, notaRequest.Itens)
		if err != nil {
			return nil, err
		}
		return &createNotaResponse{Nunota: nunota}, nil
	}
}
