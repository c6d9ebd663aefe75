package sources

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

type CatalogCache interface {
	GetCachedCatalog() (*data.FilterCatalog, time.Time, error)
	SaveCatalog(catalog *data.FilterCatalog, fetchedAt time.Time) error
}

// CachedSource serves Filters from a local cache while the cached copy is
// younger than TTL. Every other call goes straight to the wrapped source.
type CachedSource struct {
	Source
	cache  CatalogCache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewCachedSource(src Source, cache CatalogCache, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{Source: src, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

func (c *CachedSource) Filters(ctx context.Context) (*data.FilterCatalog, error) {
	if c.ttl > 0 {
		cached, fetchedAt, err := c.cache.GetCachedCatalog()
		switch {
		case err != nil:
			c.logger.Warn("reading catalog cache", zap.Error(err))
		case cached != nil && cached.Validate() != nil:
			c.logger.Warn("ignoring invalid cached catalog", zap.Error(cached.Validate()))
		case cached != nil && c.now().Sub(fetchedAt) < c.ttl:
			c.logger.Debug("filter catalog served from cache", zap.Time("fetchedAt", fetchedAt))
			return cached, nil
		}
	}

	return c.Refresh(ctx)
}

// Refresh bypasses the cache, fetching and storing a fresh catalog. A
// catalog that fails validation is returned as an error and never stored.
func (c *CachedSource) Refresh(ctx context.Context) (*data.FilterCatalog, error) {
	catalog, err := c.Source.Filters(ctx)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, errors.New("empty filter catalog")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if err := c.cache.SaveCatalog(catalog, c.now()); err != nil {
		c.logger.Warn("writing catalog cache", zap.Error(err))
	}
	return catalog, nil
}
