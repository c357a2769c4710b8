package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

// OrchestratorState is the state of the job lifecycle state machine.
type OrchestratorState string

const (
	StateIdle       OrchestratorState = "idle"
	StateSubmitting OrchestratorState = "submitting"
	StatePolling    OrchestratorState = "polling"
	StateCompleted  OrchestratorState = "completed"
	StateFailed     OrchestratorState = "failed"
	StateTimedOut   OrchestratorState = "timed_out"
	StateCancelled  OrchestratorState = "cancelled"
)

// IsTerminal reports whether the state ends a job's lifecycle.
func (s OrchestratorState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTimedOut, StateCancelled:
		return true
	default:
		return false
	}
}

// IsActive reports whether a job is being submitted or polled.
func (s OrchestratorState) IsActive() bool {
	return s == StateSubmitting || s == StatePolling
}

// JobOrchestrator drives a job from submission to a terminal outcome.
type JobOrchestrator interface {
	// Submit starts a job for the currently selected and inspected files.
	// Server rejections are *domain.SubmitError.
	Submit(ctx context.Context, req domain.JobRequest) (*domain.Job, error)

	// Resume tracks an existing server job.
	Resume(jobID string) (*domain.Job, error)

	// PollOnce issues one status request and applies the result.
	// Transport failures are *domain.PollError and never fail the job.
	PollOnce(ctx context.Context) (*domain.Job, error)

	// Cancel stops tracking the active job.
	Cancel() error

	// Snapshot returns a copy of the current job, if any.
	Snapshot() (*domain.Job, bool)

	// State returns the lifecycle state.
	State() OrchestratorState

	// LastError returns the error that moved the orchestrator to failed,
	// or nil.
	LastError() error

	// Download streams the result of a completed job to w and returns the
	// file name to save it under.
	Download(ctx context.Context, w io.Writer) (string, error)
}
