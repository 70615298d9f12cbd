package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/go-playground/validator/v10"
	"github.com/nanbuonafina/chamados-financeiro/sankhya"
)

// Response Headers
const (
	ErrorHeaderKey = "X-Chamados-Error"
)

const (
	failedReadBodyMsg  = "failed to read body"
	failedUnmarshalMsg = "failed to unmarshal json"
)

type listProductsRequest struct {
	description string
	natureCode  string
}

type listEntitiesRequest struct {
	name string
}

type createNotaRequest struct {
	sankhya.Nota
	Itens []sankhya.NotaItem `json:"itens" validate:"required,min=1,dive"`
}

type createNotaResponse struct {
	Nunota string `json:"nunota"`
}

func decodeListProductsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	return &listProductsRequest{
		description: query.Get("descricao"),
		natureCode:  query.Get("codnat"),
	}, nil
}

func decodeListEntitiesRequest(_ context.Context, r *http.Request) (interface{}, error) {
	name := r.URL.Query().Get("entidade")
	if name == "" {
		return nil, &BadRequestErr{Message: "{entidade} query parameter missing"}
	}
	return &listEntitiesRequest{name: name}, nil
}

func createNotaRequestDecoder(validate *validator.Validate) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (interface{}, error) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, &BadRequestErr{Message: failedReadBodyMsg}
		}

		notaRequest := createNotaRequest{}
		if err := json.Unmarshal(data, &notaRequest); err != nil {
			return nil, &BadRequestErr{Message: failedUnmarshalMsg}
		}

		if err := validate.Struct(&notaRequest); err != nil {
			return nil, &BadRequestErr{Message: err.Error()}
		}

		return &notaRequest, nil
	}
}

func encodeJSONResponse(_ context.Context, rw http.ResponseWriter, response interface{}) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	rw.Header().Add("Content-Type", "application/json")
	rw.Write(data)
	return nil
}

func encodeCreateNotaResponse(_ context.Context, rw http.ResponseWriter, response interface{}) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(http.StatusCreated)
	rw.Write(data)
	return nil
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set(ErrorHeaderKey, err.Error())
	code := http.StatusInternalServerError
	if sc, ok := err.(kithttp.StatusCoder); ok {
		code = sc.StatusCode()
	} else {
		code = translateClientError(err)
	}
	w.WriteHeader(code)
}

// translateClientError maps the sankhya package's error taxonomy onto HTTP
// status codes for the web tier. Anything the ERP refused or garbled is a bad
// gateway from this service's point of view; only caller mistakes are 400s.
func translateClientError(err error) int {
	switch {
	case errors.Is(err, sankhya.ErrUnknownEntity),
		errors.Is(err, sankhya.ErrNoItems),
		errors.Is(err, sankhya.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, sankhya.ErrAuthentication),
		errors.Is(err, sankhya.ErrFailedAuthentication),
		errors.Is(err, sankhya.ErrDecode),
		errors.Is(err, sankhya.ErrMissingDocumentID):
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}
