package driving

import (
	"context"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

// InspectionService validates the selected files with the remote API.
type InspectionService interface {
	// Inspect sends both selected files for inspection. Non-2xx responses
	// are *domain.APIError with a categorised detail.
	Inspect(ctx context.Context) (*domain.InspectionResult, error)

	// Latest returns the most recent result if it was computed for the
	// files currently selected.
	Latest() (*domain.InspectionResult, bool)
}
