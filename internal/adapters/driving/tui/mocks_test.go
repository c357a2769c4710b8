package tui

import (
	"context"
	"io"
	"sync"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
)

// mockJobs is a scripted driving.JobOrchestrator. Each PollOnce call
// consumes the next step.
type mockJobs struct {
	mu        sync.Mutex
	job       *domain.Job
	steps     []pollStep
	polls     int
	cancelled bool
}

type pollStep struct {
	job *domain.Job
	err error
}

var _ driving.JobOrchestrator = (*mockJobs)(nil)

func newMockJobs(job *domain.Job, steps ...pollStep) *mockJobs {
	return &mockJobs{job: job, steps: steps}
}

func (m *mockJobs) Submit(context.Context, domain.JobRequest) (*domain.Job, error) {
	return m.job.Clone(), nil
}

func (m *mockJobs) Resume(jobID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.job = &domain.Job{ID: jobID, Status: domain.JobStatusSubmitted}
	return m.job.Clone(), nil
}

func (m *mockJobs) PollOnce(context.Context) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls++
	if len(m.steps) == 0 {
		return m.job.Clone(), nil
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	if step.job != nil {
		m.job = step.job
	}
	if step.err != nil {
		return nil, step.err
	}
	return m.job.Clone(), nil
}

func (m *mockJobs) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.job == nil || m.job.IsTerminal() {
		return domain.ErrNoActiveJob
	}
	m.cancelled = true
	m.job.Status = domain.JobStatusCancelled
	return nil
}

func (m *mockJobs) Snapshot() (*domain.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.job == nil {
		return nil, false
	}
	return m.job.Clone(), true
}

func (m *mockJobs) State() driving.OrchestratorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.job == nil {
		return driving.StateIdle
	}
	switch m.job.Status {
	case domain.JobStatusCompleted:
		return driving.StateCompleted
	case domain.JobStatusFailed:
		return driving.StateFailed
	case domain.JobStatusTimedOut:
		return driving.StateTimedOut
	case domain.JobStatusCancelled:
		return driving.StateCancelled
	default:
		return driving.StatePolling
	}
}

func (m *mockJobs) LastError() error { return nil }

func (m *mockJobs) Download(context.Context, io.Writer) (string, error) {
	return "", domain.ErrJobNotCompleted
}

func (m *mockJobs) pollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}
