package services

import (
	"context"

	"github.com/patrickmn/go-cache"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// Ensure GeneratorCatalog implements the interface.
var _ driving.GeneratorCatalog = (*GeneratorCatalog)(nil)

const catalogKey = "generators"

// GeneratorCatalog lists generators and keeps the last good list.
type GeneratorCatalog struct {
	api      driven.GeneratorAPI
	sessions driving.SessionManager
	cache    *cache.Cache
}

// NewGeneratorCatalog creates a catalog. Entries never expire; a successful
// fetch replaces them.
func NewGeneratorCatalog(api driven.GeneratorAPI, sessions driving.SessionManager) *GeneratorCatalog {
	return &GeneratorCatalog{
		api:      api,
		sessions: sessions,
		cache:    cache.New(cache.NoExpiration, 0),
	}
}

// List fetches the catalog. On failure it returns the cached list, even an
// empty one, or the built-in default when nothing was cached.
func (c *GeneratorCatalog) List(ctx context.Context) []domain.GeneratorDescriptor {
	generators, err := c.api.ListGenerators(ctx, c.sessions.Credentials())
	if err != nil {
		handleRejection(c.sessions, err)
		if cached, ok := c.cached(); ok {
			logger.Warn("could not fetch generators, using cached list: %v", err)
			return cached
		}
		logger.Warn("could not fetch generators, using default: %v", err)
		return []domain.GeneratorDescriptor{domain.DefaultGenerator()}
	}

	list := make([]domain.GeneratorDescriptor, len(generators))
	copy(list, generators)
	c.cache.Set(catalogKey, list, cache.NoExpiration)

	logger.Debug("fetched %d generators", len(list))
	out, _ := c.cached()
	return out
}

// Get looks a generator up by ID in the cached list. The built-in default
// is always resolvable.
func (c *GeneratorCatalog) Get(id string) (domain.GeneratorDescriptor, bool) {
	cached, _ := c.cached()
	for _, g := range cached {
		if g.ID == id {
			return g, true
		}
	}
	if id == domain.DefaultGeneratorID {
		return domain.DefaultGenerator(), true
	}
	return domain.GeneratorDescriptor{}, false
}

// cached returns a copy of the last good list and whether one exists.
func (c *GeneratorCatalog) cached() ([]domain.GeneratorDescriptor, bool) {
	v, ok := c.cache.Get(catalogKey)
	if !ok {
		return nil, false
	}
	list, _ := v.([]domain.GeneratorDescriptor)
	out := make([]domain.GeneratorDescriptor, len(list))
	copy(out, list)
	return out, true
}
