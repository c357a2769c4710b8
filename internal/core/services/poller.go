package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// PollObserver receives every job snapshot the poller sees, together with
// the poll error if the tick failed.
type PollObserver func(job *domain.Job, err error)

// Poller drives an orchestrator's active job to a terminal state, one
// status request per tick.
type Poller struct {
	orch     driving.JobOrchestrator
	interval time.Duration
	observer PollObserver

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	stopOnce *sync.Once
}

// NewPoller creates a poller. A non-positive interval uses the default.
func NewPoller(orch driving.JobOrchestrator, interval time.Duration, observer PollObserver) *Poller {
	if interval <= 0 {
		interval = domain.DefaultPollInterval
	}
	return &Poller{
		orch:     orch,
		interval: interval,
		observer: observer,
	}
}

// Run blocks until the job is terminal, Stop is called or ctx is done.
// Stopping cancels the job. Transient poll errors are reported to the
// observer and retried on the next tick.
func (p *Poller) Run(ctx context.Context) (*domain.Job, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, domain.ErrPollInFlight
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.stopOnce = new(sync.Once)
	stopCh := p.stopCh
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	if job, ok := p.orch.Snapshot(); ok && job.IsTerminal() {
		return job, nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return p.cancel(), ctx.Err()
		case <-stopCh:
			return p.cancel(), nil
		case <-ticker.C:
			job, err := p.orch.PollOnce(ctx)
			if err != nil {
				var pollErr *domain.PollError
				switch {
				case errors.As(err, &pollErr):
					snap, _ := p.orch.Snapshot()
					p.notify(snap, err)
					continue
				case errors.Is(err, domain.ErrPollInFlight):
					continue
				default:
					return nil, err
				}
			}
			p.notify(job, nil)
			if job.IsTerminal() {
				return job, nil
			}
		}
	}
}

// Stop ends a running Run call. It is safe to call when not running and
// more than once. The poller stays busy until Run has returned.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	stopCh := p.stopCh
	p.stopOnce.Do(func() { close(stopCh) })
}

func (p *Poller) cancel() *domain.Job {
	if err := p.orch.Cancel(); err != nil {
		logger.Debug("cancel on stop: %v", err)
	}
	job, _ := p.orch.Snapshot()
	p.notify(job, nil)
	return job
}

func (p *Poller) notify(job *domain.Job, err error) {
	if p.observer != nil && job != nil {
		p.observer(job, err)
	}
}
