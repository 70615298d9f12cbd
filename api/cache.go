package api

import (
	"context"
	"sync"
	"time"

	"github.com/nanbuonafina/chamados-financeiro/sankhya"
)

type cacheEntry struct {
	options    []sankhya.Option
	expiration time.Time
}

// CachedCatalog decorates a Catalog with a short-lived cache of the unfiltered
// lister results. The ERP pages these lists slowly and they change rarely, so
// every form load does not need to re-walk them. Filtered product searches and
// nota submission always pass through.
type CachedCatalog struct {
	next Catalog
	ttl  time.Duration
	now  func() time.Time

	lock    sync.Mutex
	entries map[string]cacheEntry
}

func NewCachedCatalog(next Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]cacheEntry{},
	}
}

func (c *CachedCatalog) cached(ctx context.Context, key string, load func(context.Context) ([]sankhya.Option, error)) ([]sankhya.Option, error) {
	c.lock.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().Before(entry.expiration) {
		c.lock.Unlock()
		return entry.options, nil
	}
	c.lock.Unlock()

	options, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	c.entries[key] = cacheEntry{options: options, expiration: c.now().Add(c.ttl)}
	c.lock.Unlock()
	return options, nil
}

func (c *CachedCatalog) ListCompanies(ctx context.Context) ([]sankhya.Option, error) {
	return c.cached(ctx, "empresas", c.next.ListCompanies)
}

func (c *CachedCatalog) ListSuppliers(ctx context.Context) ([]sankhya.Option, error) {
	return c.cached(ctx, "parceiros", c.next.ListSuppliers)
}

func (c *CachedCatalog) ListNatures(ctx context.Context) ([]sankhya.Option, error) {
	return c.cached(ctx, "naturezas", c.next.ListNatures)
}

func (c *CachedCatalog) ListCostCenters(ctx context.Context) ([]sankhya.Option, error) {
	return c.cached(ctx, "centros-resultado", c.next.ListCostCenters)
}

func (c *CachedCatalog) ListProjects(ctx context.Context) ([]sankhya.Option, error) {
	return c.cached(ctx, "projetos", c.next.ListProjects)
}

func (c *CachedCatalog) ListEntities(ctx context.Context, name string) ([]sankhya.Option, error) {
	return c.cached(ctx, "entidades:"+name, func(ctx context.Context) ([]sankhya.Option, error) {
		return c.next.ListEntities(ctx, name)
	})
}

func (c *CachedCatalog) ListProducts(ctx context.Context, description, natureCode string) ([]sankhya.Product, error) {
	return c.next.ListProducts(ctx, description, natureCode)
}

func (c *CachedCatalog) SubmitNota(ctx context.Context, nota sankhya.Nota, items []sankhya.NotaItem) (string, error) {
	return c.next.SubmitNota(ctx, nota, items)
}
