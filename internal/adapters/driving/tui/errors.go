package tui

import "errors"

// ErrMissingJobOrchestrator is returned when the job orchestrator is not provided.
var ErrMissingJobOrchestrator = errors.New("tui: job orchestrator is required")
