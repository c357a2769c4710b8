package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/tui/views/watch"
	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
)

// App watches one job until it reaches a terminal state.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports     *Ports
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	watchView *watch.View
	statusBar *status.Bar

	job *domain.Job

	// pollErr is the last transient poll failure, cleared by a good poll.
	pollErr error

	// err ended the watch early.
	err error

	done bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the job progress app for the job currently tracked by
// ports.Jobs.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if ports.PollInterval <= 0 {
		ports.PollInterval = domain.DefaultPollInterval
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	app := &App{
		ports:     ports,
		ctx:       context.Background(),
		styles:    s,
		keymap:    km,
		watchView: watch.NewView(s),
		statusBar: status.NewBar(s, km),
	}
	if job, ok := ports.Jobs.Snapshot(); ok {
		app.setJob(job)
	}
	return app, nil
}

// WithContext sets the context used for status requests.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	if a.job == nil {
		a.err = domain.ErrNoActiveJob
		a.done = true
		return tea.Quit
	}
	if a.job.IsTerminal() {
		a.done = true
		return tea.Quit
	}
	return tea.Batch(a.watchView.Init(), a.tick())
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.watchView.SetWidth(msg.Width)
		a.statusBar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.PollTick:
		if a.done {
			return a, nil
		}
		return a, a.poll()

	case messages.PollCompleted:
		return a.handlePoll(msg)

	case messages.JobCancelled:
		a.setJob(msg.Job)
		a.done = true
		return a, tea.Quit

	case spinner.TickMsg:
		if a.done {
			return a, nil
		}
		return a, a.watchView.Update(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), a.keymap.Cancel):
		if a.done {
			return a, tea.Quit
		}
		return a, a.cancel()
	case keymap.Matches(msg.String(), a.keymap.Details):
		a.watchView.ToggleDetails()
	}
	return a, nil
}

func (a *App) handlePoll(msg messages.PollCompleted) (tea.Model, tea.Cmd) {
	if msg.Job != nil {
		a.setJob(msg.Job)
	}

	var pe *domain.PollError
	switch {
	case msg.Err == nil:
		a.pollErr = nil
		a.statusBar.SetState(status.StatePolling)
	case errors.As(msg.Err, &pe):
		a.pollErr = msg.Err
		a.statusBar.SetState(status.StateRetrying)
		a.statusBar.SetMessage(pe.Err.Error())
	case errors.Is(msg.Err, domain.ErrPollInFlight):
	default:
		a.err = msg.Err
		a.done = true
		return a, tea.Quit
	}

	if a.job != nil && a.job.IsTerminal() {
		a.done = true
		return a, tea.Quit
	}
	return a, a.tick()
}

// tick schedules the next poll one interval from now.
func (a *App) tick() tea.Cmd {
	return tea.Tick(a.ports.PollInterval, func(time.Time) tea.Msg {
		return messages.PollTick{}
	})
}

func (a *App) poll() tea.Cmd {
	jobs, ctx := a.ports.Jobs, a.ctx
	return func() tea.Msg {
		job, err := jobs.PollOnce(ctx)
		if job == nil {
			job, _ = jobs.Snapshot()
		}
		return messages.PollCompleted{Job: job, Err: err}
	}
}

func (a *App) cancel() tea.Cmd {
	jobs := a.ports.Jobs
	return func() tea.Msg {
		_ = jobs.Cancel()
		job, _ := jobs.Snapshot()
		return messages.JobCancelled{Job: job}
	}
}

func (a *App) setJob(job *domain.Job) {
	a.job = job
	a.statusBar.SetJob(job)
}

// View implements tea.Model.
func (a *App) View() string {
	body := a.watchView.Render(a.job, a.pollErr)
	if a.err != nil {
		body += "\n" + a.styles.Error.Render("Error: "+a.err.Error())
	}
	return body + "\n" + a.statusBar.View() + "\n"
}

// Job returns the last job snapshot seen by the app.
func (a *App) Job() *domain.Job {
	return a.job
}

// Err returns the error that ended the watch, if any.
func (a *App) Err() error {
	return a.err
}

// Done reports whether the watch has finished.
func (a *App) Done() bool {
	return a.done
}

// Run watches the job tracked by ports.Jobs in a Bubbletea program and
// returns the final snapshot. Context cancellation stops tracking the job.
func Run(ctx context.Context, ports *Ports, opts ...tea.ProgramOption) (*domain.Job, error) {
	app, err := NewApp(ports)
	if err != nil {
		return nil, err
	}
	app.WithContext(ctx)

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(app, opts...).Run(); err != nil {
		if ctx.Err() != nil {
			return stopTracking(ports.Jobs), ctx.Err()
		}
		return app.Job(), fmt.Errorf("TUI error: %w", err)
	}
	return app.Job(), app.Err()
}

func stopTracking(jobs driving.JobOrchestrator) *domain.Job {
	_ = jobs.Cancel()
	job, _ := jobs.Snapshot()
	return job
}
