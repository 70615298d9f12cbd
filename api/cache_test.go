package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanbuonafina/chamados-financeiro/sankhya"
)

func TestCachedCatalogReusesResults(t *testing.T) {
	assert := assert.New(t)
	catalog := &mockCatalog{options: []sankhya.Option{{Codigo: "2", Nome: "Matriz"}}}
	cached := NewCachedCatalog(catalog, 5*time.Minute)

	current := time.Now()
	cached.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		options, err := cached.ListCompanies(context.Background())
		require.NoError(t, err)
		assert.Len(options, 1)
	}
	assert.Equal(1, catalog.calls)

	current = current.Add(5*time.Minute + time.Second)
	_, err := cached.ListCompanies(context.Background())
	require.NoError(t, err)
	assert.Equal(2, catalog.calls)
}

func TestCachedCatalogKeysPerOperation(t *testing.T) {
	assert := assert.New(t)
	catalog := &mockCatalog{}
	cached := NewCachedCatalog(catalog, time.Minute)

	_, err := cached.ListCompanies(context.Background())
	require.NoError(t, err)
	_, err = cached.ListSuppliers(context.Background())
	require.NoError(t, err)
	_, err = cached.ListEntities(context.Background(), "Empresa")
	require.NoError(t, err)
	_, err = cached.ListEntities(context.Background(), "Tipo Negociação")
	require.NoError(t, err)
	_, err = cached.ListEntities(context.Background(), "Empresa")
	require.NoError(t, err)

	assert.Equal(4, catalog.calls)
	assert.Equal("Tipo Negociação", catalog.lastEntity)
}

func TestCachedCatalogDoesNotCacheFailures(t *testing.T) {
	assert := assert.New(t)
	catalog := &mockCatalog{err: errors.New("gateway down")}
	cached := NewCachedCatalog(catalog, time.Minute)

	_, err := cached.ListProjects(context.Background())
	assert.Error(err)

	catalog.err = nil
	_, err = cached.ListProjects(context.Background())
	assert.NoError(err)
	assert.Equal(2, catalog.calls)
}

func TestCachedCatalogPassesThroughFilteredCalls(t *testing.T) {
	assert := assert.New(t)
	catalog := &mockCatalog{nunota: "999"}
	cached := NewCachedCatalog(catalog, time.Minute)

	_, err := cached.ListProducts(context.Background(), "cabo", "30105")
	require.NoError(t, err)
	_, err = cached.ListProducts(context.Background(), "cabo", "30105")
	require.NoError(t, err)

	nunota, err := cached.SubmitNota(context.Background(), sankhya.Nota{}, []sankhya.NotaItem{{Codigo: "1"}})
	require.NoError(t, err)
	assert.Equal("999", nunota)

	assert.Equal(3, catalog.calls)
}
