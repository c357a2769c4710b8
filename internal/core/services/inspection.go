package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// Ensure InspectionService implements the interface.
var _ driving.InspectionService = (*InspectionService)(nil)

// InspectionService validates the selected file pair with the remote API
// and remembers the latest verdict for the selection it was computed for.
type InspectionService struct {
	api      driven.InspectionAPI
	sessions driving.SessionManager
	intake   driving.FileIntake

	mu       sync.RWMutex
	latest   *domain.InspectionResult
	revision uint64
}

// NewInspectionService creates an inspection service.
func NewInspectionService(
	api driven.InspectionAPI,
	sessions driving.SessionManager,
	intake driving.FileIntake,
) *InspectionService {
	return &InspectionService{
		api:      api,
		sessions: sessions,
		intake:   intake,
	}
}

// Inspect sends the current selection for inspection.
func (s *InspectionService) Inspect(ctx context.Context) (*domain.InspectionResult, error) {
	snap := s.intake.Snapshot()
	if !snap.Ready() {
		return nil, domain.ErrFilesNotReady
	}

	logger.Debug("inspecting %s and %s", snap.Primary.Name, snap.Reference.Name)

	result, err := s.api.InspectFiles(ctx, s.sessions.Credentials(), *snap.Primary, *snap.Reference)
	if err != nil {
		handleRejection(s.sessions, err)
		s.mu.Lock()
		s.latest = nil
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.latest = result.Clone()
	s.revision = snap.Revision
	s.mu.Unlock()

	logger.Event("inspection finished",
		"valid", result.IsValid,
		"warnings", len(result.Warnings),
		"primary", snap.Primary.Name)

	return result.Clone(), nil
}

// Latest returns the last result if the selection has not changed since.
func (s *InspectionService) Latest() (*domain.InspectionResult, bool) {
	current := s.intake.Snapshot().Revision

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil || s.revision != current {
		return nil, false
	}
	return s.latest.Clone(), true
}
