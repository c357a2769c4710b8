package mcp

import (
	"time"

	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Sessions authenticates tool calls.
	Sessions driving.SessionManager

	// Intake holds the selected documents.
	Intake driving.FileIntake

	// Inspection validates the selected documents.
	Inspection driving.InspectionService

	// Catalog lists generators.
	Catalog driving.GeneratorCatalog

	// Jobs submits and tracks the job.
	Jobs driving.JobOrchestrator

	// PollInterval paces wait_for_job; zero uses the default.
	PollInterval time.Duration

	// ContextWindowSize is the configured window used when submit_job
	// omits one; nil uses the built-in default.
	ContextWindowSize *int

	// Username is the account the login tool falls back to.
	Username string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p == nil || p.Jobs == nil {
		return ErrMissingJobOrchestrator
	}
	if p.Sessions == nil || p.Intake == nil || p.Inspection == nil || p.Catalog == nil {
		return ErrMissingWorkflowService
	}
	return nil
}
