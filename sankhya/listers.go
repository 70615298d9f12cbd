package sankhya

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Option is a code/name pair as rendered by the chamado form selects.
type Option struct {
	Codigo string `json:"codigo"`
	Nome   string `json:"nome"`
}

// Product carries the extra fields the item rows of the form need.
type Product struct {
	Codigo  string  `json:"codigo"`
	Nome    string  `json:"nome"`
	Codvol  string  `json:"codvol"`
	Vlrunit float64 `json:"vlrunit"`
}

const productPageLimit = 200

// Entity names accepted by ListEntities.
const (
	EntityEmpresa        = "Empresa"
	EntityTipoNegociacao = "Tipo Negociação"
)

// entitySpecs registers the entities the generic lister dispatch knows how to
// project. The first field is the code, the second the display name.
var entitySpecs = map[string]struct {
	root      string
	fieldList string
}{
	EntityEmpresa:        {root: "Empresa", fieldList: "CODEMP,NOMEFANTASIA"},
	EntityTipoNegociacao: {root: "TipoNegociacao", fieldList: "CODTIPVENDA,DESCRTIPVENDA"},
}

// ListCompanies returns every company, unfiltered.
func (c *Client) ListCompanies(ctx context.Context) ([]Option, error) {
	records, err := c.LoadRecords(ctx, Query{
		RootEntity: "Empresa",
		FieldList:  "CODEMP,NOMEFANTASIA",
	})
	if err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(records))
	for _, r := range records {
		options = append(options, Option{
			Codigo: cast.ToString(r["CODEMP"]),
			Nome:   cast.ToString(r["NOMEFANTASIA"]),
		})
	}
	return options, nil
}

// ListSuppliers returns active supplier partners. The tax ID is appended to the
// display name when the partner has one.
func (c *Client) ListSuppliers(ctx context.Context) ([]Option, error) {
	records, err := c.LoadRecords(ctx, Query{
		RootEntity: "Parceiro",
		FieldList:  "CODPARC,NOMEPARC,CGC_CPF",
		Criteria: &Criteria{
			Expression: "FORNECEDOR = ? AND ATIVO = ?",
			Parameters: []Param{
				{Value: "S", Type: "S"},
				{Value: "S", Type: "S"},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(records))
	for _, r := range records {
		name := cast.ToString(r["NOMEPARC"])
		if taxID := cast.ToString(r["CGC_CPF"]); taxID != "" {
			name = name + " - " + taxID
		}
		options = append(options, Option{
			Codigo: cast.ToString(r["CODPARC"]),
			Nome:   name,
		})
	}
	return options, nil
}

// ListProducts returns active products, optionally narrowed by a
// case-insensitive description match and by the numeric part of a nature code.
// A nature filter with no digits in it is dropped rather than failing.
func (c *Client) ListProducts(ctx context.Context, description, natureCode string) ([]Product, error) {
	parts := []string{"ATIVO = 'S'"}

	if description != "" {
		parts = append(parts, fmt.Sprintf("UPPER(DESCRPROD) LIKE UPPER('%%%s%%')", description))
	}

	if natureCode != "" {
		if n, err := strconv.Atoi(digitsOnly(natureCode)); err == nil {
			parts = append(parts, fmt.Sprintf("CODNAT = %d", n))
		}
	}

	records, err := c.LoadRecords(ctx, Query{
		RootEntity: "Produto",
		FieldList:  "CODPROD,DESCRPROD,COMPLDESC,CODVOL",
		Criteria:   &Criteria{Expression: strings.Join(parts, " AND ")},
		Limit:      productPageLimit,
	})
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(records))
	for _, r := range records {
		name := cast.ToString(r["COMPLDESC"])
		if name == "" {
			name = cast.ToString(r["DESCRPROD"])
		}
		products = append(products, Product{
			Codigo: cast.ToString(r["CODPROD"]),
			Nome:   name,
			Codvol: cast.ToString(r["CODVOL"]),
		})
	}
	return products, nil
}

// ListEntities is the generic dispatch for entities that only need a plain
// code/name projection. Unknown names are a caller mistake, not an ERP failure.
func (c *Client) ListEntities(ctx context.Context, name string) ([]Option, error) {
	spec, ok := entitySpecs[name]
	if !ok {
		return nil, fmt.Errorf(errWrappedFmt, ErrUnknownEntity, name)
	}

	records, err := c.LoadRecords(ctx, Query{
		RootEntity: spec.root,
		FieldList:  spec.fieldList,
	})
	if err != nil {
		return nil, err
	}

	fields := strings.Split(spec.fieldList, ",")
	options := make([]Option, 0, len(records))
	for _, r := range records {
		options = append(options, Option{
			Codigo: cast.ToString(r[fields[0]]),
			Nome:   cast.ToString(r[fields[1]]),
		})
	}
	return options, nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
