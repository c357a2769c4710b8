package services

import (
	"context"

	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// StatusService checks the remote service root endpoint.
type StatusService struct {
	api    driven.HealthAPI
	apiURL string
}

// NewStatusService creates a status service for the API at apiURL.
func NewStatusService(api driven.HealthAPI, apiURL string) *StatusService {
	return &StatusService{api: api, apiURL: apiURL}
}

// Check implements driving.StatusService.
func (s *StatusService) Check(ctx context.Context) driving.ServiceStatus {
	status := driving.ServiceStatus{APIURL: s.apiURL}
	info, err := s.api.Health(ctx)
	if err != nil {
		logger.Debug("health check against %s failed: %v", s.apiURL, err)
		status.Err = err
		return status
	}
	status.Reachable = true
	status.Version = info.Version
	return status
}
