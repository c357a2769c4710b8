package driving

import (
	"context"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

// GeneratorCatalog lists generation profiles. It never fails: when the
// server is unavailable it falls back to the cached or built-in list.
type GeneratorCatalog interface {
	// List fetches the catalog, refreshing the cache on success.
	List(ctx context.Context) []domain.GeneratorDescriptor

	// Get looks a generator up in the last listed catalog.
	Get(id string) (domain.GeneratorDescriptor, bool)
}
