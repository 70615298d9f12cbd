package sankhya

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// v1 endpoint paths
const (
	naturesPath     = "/v1/naturezas"
	costCentersPath = "/v1/centros-resultado"
	projectsPath    = "/v1/projetos"
)

const costCenterPageSize = 50

// Natures whose code starts with one of these digits are revenue/transfer
// groups the purchase form must never offer.
var excludedNaturePrefixes = []string{"1", "2", "5", "6"}

// Only analytic, active expense natures are listed. The v1 endpoint ignores
// these as query filters, so they are applied client-side.
const expenseNatureType = 2

// The v1 project schema has drifted across environments; these are the known
// spellings for the code and name fields, probed in order.
var (
	projectCodeFields = []string{"codProj", "codigo", "codigoProjeto", "id", "codigoInterno"}
	projectNameFields = []string{"descrProj", "nome", "descricao"}
)

const projectFallbackName = "Sem Nome"

// v1Pager adapts one /v1 endpoint to the pager contract. The endpoints differ
// in where the records live (envelopeKeys, probed in order) and in how "more
// pages" is signaled (more); an empty page always terminates.
type v1Pager struct {
	client       *Client
	path         string
	params       url.Values
	envelopeKeys []string
	more         func(body map[string]interface{}, pageCount int) bool
}

func (p *v1Pager) fetch(ctx context.Context, page int) ([]Record, bool, error) {
	params := url.Values{}
	for k, vs := range p.params {
		params[k] = vs
	}
	params.Set("page", strconv.Itoa(page))

	body, err := p.client.getV1(ctx, p.path, params)
	if err != nil {
		return nil, false, err
	}

	records := v1Records(body, p.envelopeKeys)
	if len(records) == 0 {
		return nil, false, nil
	}
	return records, p.more(body, len(records)), nil
}

// v1Records digs the record list out of a v1 response. Some environments wrap
// the list one level deeper inside an object; in that case the nested keys are
// probed in sorted order so the pick stays deterministic, falling back to the
// object's own values.
func v1Records(body map[string]interface{}, keys []string) []Record {
	for _, key := range keys {
		switch value := body[key].(type) {
		case []interface{}:
			if records := toRecords(value); len(records) > 0 {
				return records
			}
		case map[string]interface{}:
			for _, inner := range sortedKeys(value) {
				if list, ok := value[inner].([]interface{}); ok {
					return toRecords(list)
				}
			}
			records := make([]Record, 0, len(value))
			for _, inner := range sortedKeys(value) {
				if m, ok := value[inner].(map[string]interface{}); ok {
					records = append(records, Record(m))
				}
			}
			if len(records) > 0 {
				return records
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func toRecords(list []interface{}) []Record {
	records := make([]Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			records = append(records, Record(m))
		}
	}
	return records
}

func paginationHasMore(body map[string]interface{}) string {
	pagination, ok := body["pagination"].(map[string]interface{})
	if !ok {
		return ""
	}
	return strings.ToLower(cast.ToString(pagination["hasMore"]))
}

// ListNatures returns analytic, active expense natures from /v1/naturezas,
// excluding the blacklisted code prefixes. Server-side filters are discarded by
// this endpoint, so everything is filtered here.
func (c *Client) ListNatures(ctx context.Context) ([]Option, error) {
	records, err := collectPages(ctx, &v1Pager{
		client:       c,
		path:         naturesPath,
		params:       url.Values{"modifiedSince": []string{"0"}},
		envelopeKeys: []string{"data"},
		more: func(body map[string]interface{}, _ int) bool {
			return paginationHasMore(body) == "true"
		},
	}, false)
	if err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(records))
	for _, r := range records {
		code := cast.ToString(r["codigoNatureza"])
		if hasAnyPrefix(code, excludedNaturePrefixes) {
			continue
		}
		if cast.ToInt(r["tipoNatureza"]) != expenseNatureType {
			continue
		}
		if analytic, ok := r["analitica"].(bool); !ok || !analytic {
			continue
		}
		if active, ok := r["ativo"].(bool); !ok || !active {
			continue
		}
		options = append(options, Option{Codigo: code, Nome: cast.ToString(r["nome"])})
	}
	return options, nil
}

// ListCostCenters returns every cost center from /v1/centros-resultado. This
// endpoint has no "more pages" flag at all; a page shorter than the requested
// size is the only terminal signal.
func (c *Client) ListCostCenters(ctx context.Context) ([]Option, error) {
	records, err := collectPages(ctx, &v1Pager{
		client:       c,
		path:         costCentersPath,
		params:       url.Values{"pageSize": []string{strconv.Itoa(costCenterPageSize)}},
		envelopeKeys: []string{"content", "data"},
		more: func(_ map[string]interface{}, pageCount int) bool {
			return pageCount == costCenterPageSize
		},
	}, false)
	if err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(records))
	for _, r := range records {
		options = append(options, Option{
			Codigo: cast.ToString(r["codigoCentroResultado"]),
			Nome:   cast.ToString(r["nome"]),
		})
	}
	return options, nil
}

// ListProjects returns every project from /v1/projetos, probing the configured
// field-name synonyms per record.
func (c *Client) ListProjects(ctx context.Context) ([]Option, error) {
	records, err := collectPages(ctx, &v1Pager{
		client:       c,
		path:         projectsPath,
		envelopeKeys: []string{"data", "content", "items", "records"},
		more: func(body map[string]interface{}, _ int) bool {
			if last, ok := body["last"].(bool); ok && last {
				return false
			}
			return paginationHasMore(body) != "false"
		},
	}, false)
	if err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(records))
	for _, r := range records {
		name := firstField(r, projectNameFields)
		if name == "" {
			name = projectFallbackName
		}
		options = append(options, Option{
			Codigo: firstField(r, projectCodeFields),
			Nome:   name,
		})
	}
	return options, nil
}

// firstField probes the given key spellings in order, returning the first
// value present and non-empty.
func firstField(r Record, keys []string) string {
	for _, key := range keys {
		if value, ok := r[key]; ok {
			if s := cast.ToString(value); s != "" {
				return s
			}
		}
	}
	return ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
