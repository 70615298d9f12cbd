package api

import (
	"context"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/go-playground/validator/v10"
	"github.com/nanbuonafina/chamados-financeiro/sankhya"
)

type Handler http.Handler

func newOptionsHandler(list func(context.Context) ([]sankhya.Option, error)) Handler {
	return kithttp.NewServer(
		newListOptionsEndpoint(list),
		kithttp.NopRequestDecoder,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newListProductsHandler(c Catalog) Handler {
	return kithttp.NewServer(
		newListProductsEndpoint(c),
		decodeListProductsRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newListEntitiesHandler(c Catalog) Handler {
	return kithttp.NewServer(
		newListEntitiesEndpoint(c),
		decodeListEntitiesRequest,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newCreateNotaHandler(c Catalog, validate *validator.Validate) Handler {
	return kithttp.NewServer(
		newCreateNotaEndpoint(c),
		createNotaRequestDecoder(validate),
		encodeCreateNotaResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}
