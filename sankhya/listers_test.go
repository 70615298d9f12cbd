package sankhya

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturedCriteria pulls dataSet.criteria.expression out of a service.sbr body.
func capturedCriteria(t *testing.T, r *http.Request) string {
	var body struct {
		RequestBody struct {
			DataSet struct {
				Criteria struct {
					Expression struct {
						Value string `json:"$"`
					} `json:"expression"`
				} `json:"criteria"`
			} `json:"dataSet"`
		} `json:"requestBody"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body.RequestBody.DataSet.Criteria.Expression.Value
}

func TestListCompanies(t *testing.T) {
	assert := assert.New(t)
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		// numeric codes arrive as JSON numbers
		w.Write(recordsPage(t, "false", []string{"CODEMP", "NOMEFANTASIA"},
			[]interface{}{float64(2), "Matriz"}))
	})
	client := gateway.newClient(t)

	options, err := client.ListCompanies(context.Background())
	require.NoError(t, err)
	assert.Equal([]Option{{Codigo: "2", Nome: "Matriz"}}, options)
}

func TestListSuppliers(t *testing.T) {
	assert := assert.New(t)
	var criteria string
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		criteria = capturedCriteria(t, r)
		w.Write(recordsPage(t, "false", []string{"CODPARC", "NOMEPARC", "CGC_CPF"},
			[]interface{}{float64(10), "ACME LTDA", "12345678000199"},
			[]interface{}{float64(11), "NO TAX ID CO", nil}))
	})
	client := gateway.newClient(t)

	options, err := client.ListSuppliers(context.Background())
	require.NoError(t, err)

	assert.Equal("FORNECEDOR = ? AND ATIVO = ?", criteria)
	require.Len(t, options, 2)
	assert.Equal(Option{Codigo: "10", Nome: "ACME LTDA - 12345678000199"}, options[0])
	assert.Equal(Option{Codigo: "11", Nome: "NO TAX ID CO"}, options[1])
}

func TestListProductsCriteria(t *testing.T) {
	type testCase struct {
		Description      string
		SearchText       string
		NatureCode       string
		ExpectedCriteria string
	}

	tcs := []testCase{
		{
			Description:      "No filters",
			ExpectedCriteria: "ATIVO = 'S'",
		},
		{
			Description:      "Description filter",
			SearchText:       "cabo",
			ExpectedCriteria: "ATIVO = 'S' AND UPPER(DESCRPROD) LIKE UPPER('%cabo%')",
		},
		{
			Description:      "Nature code keeps only its digits",
			NatureCode:       "ABC123",
			ExpectedCriteria: "ATIVO = 'S' AND CODNAT = 123",
		},
		{
			Description:      "Nature code with no digits is dropped",
			NatureCode:       "abc",
			ExpectedCriteria: "ATIVO = 'S'",
		},
		{
			Description:      "Both filters",
			SearchText:       "cabo",
			NatureCode:       "301.05",
			ExpectedCriteria: "ATIVO = 'S' AND UPPER(DESCRPROD) LIKE UPPER('%cabo%') AND CODNAT = 30105",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			var criteria string
			gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				criteria = capturedCriteria(t, r)
				w.Write(recordsPage(t, "false", []string{"CODPROD", "DESCRPROD", "COMPLDESC", "CODVOL"}))
			})
			client := gateway.newClient(t)

			_, err := client.ListProducts(context.Background(), tc.SearchText, tc.NatureCode)
			require.NoError(t, err)
			assert.Equal(tc.ExpectedCriteria, criteria)
		})
	}
}

func TestListProductsNameFallback(t *testing.T) {
	assert := assert.New(t)
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(recordsPage(t, "false", []string{"CODPROD", "DESCRPROD", "COMPLDESC", "CODVOL"},
			[]interface{}{float64(1), "short name", "full commercial description", "UN"},
			[]interface{}{float64(2), "only name", nil, "CX"}))
	})
	client := gateway.newClient(t)

	products, err := client.ListProducts(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(Product{Codigo: "1", Nome: "full commercial description", Codvol: "UN"}, products[0])
	assert.Equal(Product{Codigo: "2", Nome: "only name", Codvol: "CX"}, products[1])
}

func TestListEntities(t *testing.T) {
	assert := assert.New(t)
	var rootEntity string
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RequestBody struct {
				DataSet struct {
					RootEntity string `json:"rootEntity"`
				} `json:"dataSet"`
			} `json:"requestBody"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rootEntity = body.RequestBody.DataSet.RootEntity
		w.Write(recordsPage(t, "false", []string{"CODTIPVENDA", "DESCRTIPVENDA"},
			[]interface{}{float64(5), "Boleto 30 dias"}))
	})
	client := gateway.newClient(t)

	options, err := client.ListEntities(context.Background(), "Tipo Negociação")
	require.NoError(t, err)

	assert.Equal("TipoNegociacao", rootEntity)
	assert.Equal([]Option{{Codigo: "5", Nome: "Boleto 30 dias"}}, options)
}

func TestListEntitiesUnknownName(t *testing.T) {
	assert := assert.New(t)
	gateway := newTestGateway(t, nil)
	client := gateway.newClient(t)

	_, err := client.ListEntities(context.Background(), "Feitiçaria")
	assert.ErrorIs(err, ErrUnknownEntity)
	assert.Contains(err.Error(), "Feitiçaria")
}

func TestDigitsOnly(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("123", digitsOnly("ABC123"))
	assert.Equal("30105", digitsOnly("301.05"))
	assert.Equal("", digitsOnly("abc"))
	assert.Equal("42", digitsOnly("42"))
}
