package sankhya

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const defaultPageLimit = 500

// Criteria is an optional SQL-like filter for LoadRecords. Parameters are
// substituted positionally; the caller is responsible for matching the
// placeholder count, Sankhya does not validate it.
type Criteria struct {
	Expression string
	Parameters []Param
}

// Param is one typed positional criteria parameter. Type follows Sankhya's
// single-letter convention ("S" string, "I" integer, "D" date).
type Param struct {
	Value interface{}
	Type  string
}

// Query names what LoadRecords should fetch.
type Query struct {
	// RootEntity is the Sankhya entity name (i.e. "Parceiro").
	RootEntity string

	// FieldList is the comma-separated list of fields to project.
	FieldList string

	// Criteria is an optional filter.
	Criteria *Criteria

	// Limit is the page size. (Optional) Defaults to 500.
	Limit int

	// SinglePage stops after the first page regardless of hasMoreResult.
	SinglePage bool
}

// wire shapes for the loadRecords request body
type dataSetBody struct {
	DataSet dataSet `json:"dataSet"`
}

type dataSet struct {
	RootEntity                string        `json:"rootEntity"`
	IncludePresentationFields string        `json:"includePresentationFields"`
	OffsetPage                string        `json:"offsetPage"`
	Limit                     string        `json:"limit"`
	Criteria                  *criteriaBody `json:"criteria,omitempty"`
	Entity                    []entitySpec  `json:"entity"`
}

type entitySpec struct {
	Path     string   `json:"path"`
	Fieldset fieldset `json:"fieldset"`
}

type fieldset struct {
	List string `json:"list"`
}

type criteriaBody struct {
	Expression wrapped     `json:"expression"`
	Parameter  []paramBody `json:"parameter,omitempty"`
}

type paramBody struct {
	Value interface{} `json:"$"`
	Type  string      `json:"type"`
}

type entitiesEnvelope struct {
	Entities struct {
		Entity        entityList `json:"entity"`
		Metadata      metadata   `json:"metadata"`
		HasMoreResult string     `json:"hasMoreResult"`
	} `json:"entities"`
}

// LoadRecords runs a paginated loadRecords query and returns every decoded row.
// The result is never partial: any page failing fails the whole call.
func (c *Client) LoadRecords(ctx context.Context, query Query) ([]Record, error) {
	if query.RootEntity == "" {
		return nil, ErrRootEntityEmpty
	}
	if query.FieldList == "" {
		return nil, ErrFieldListEmpty
	}
	if query.Limit <= 0 {
		query.Limit = defaultPageLimit
	}

	return collectPages(ctx, &rpcPager{client: c, query: query}, query.SinglePage)
}

// rpcPager is the loadRecords flavor of the pager contract. Each page decodes
// with its own metadata; Sankhya may reorder fields between pages, so metadata
// is never carried over.
type rpcPager struct {
	client *Client
	query  Query
}

func (p *rpcPager) fetch(ctx context.Context, page int) ([]Record, bool, error) {
	body := dataSetBody{
		DataSet: dataSet{
			RootEntity:                p.query.RootEntity,
			IncludePresentationFields: "N",
			OffsetPage:                strconv.Itoa(page),
			Limit:                     strconv.Itoa(p.query.Limit),
			Criteria:                  criteriaWire(p.query.Criteria),
			Entity: []entitySpec{
				{Path: "", Fieldset: fieldset{List: p.query.FieldList}},
			},
		},
	}

	responseBody, err := p.client.callService(ctx, gatewayMGE, serviceLoadRecords, body)
	if err != nil {
		return nil, false, err
	}

	var env entitiesEnvelope
	if err := json.Unmarshal(responseBody, &env); err != nil {
		return nil, false, fmt.Errorf(errWrappedFmt, ErrDecode, err.Error())
	}

	// An empty page is terminal: this page and all further ones hold nothing.
	if len(env.Entities.Entity) == 0 {
		return nil, false, nil
	}

	records := decodeEntities(env.Entities.Entity, env.Entities.Metadata)
	return records, env.Entities.HasMoreResult == "true", nil
}

func criteriaWire(criteria *Criteria) *criteriaBody {
	if criteria == nil {
		return nil
	}
	body := &criteriaBody{Expression: wrapped{Value: criteria.Expression}}
	for _, p := range criteria.Parameters {
		body.Parameter = append(body.Parameter, paramBody{Value: p.Value, Type: p.Type})
	}
	return body
}
