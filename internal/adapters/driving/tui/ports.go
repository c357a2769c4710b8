// Package tui provides the interactive job progress view for insightgen.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"time"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
type Ports struct {
	// Jobs tracks the job being watched.
	Jobs driving.JobOrchestrator

	// PollInterval is the period between status polls.
	PollInterval time.Duration
}

// NewPorts creates a Ports aggregate. A non-positive interval selects the
// default poll interval.
func NewPorts(jobs driving.JobOrchestrator, interval time.Duration) *Ports {
	if interval <= 0 {
		interval = domain.DefaultPollInterval
	}
	return &Ports{Jobs: jobs, PollInterval: interval}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Jobs == nil {
		return ErrMissingJobOrchestrator
	}
	return nil
}
