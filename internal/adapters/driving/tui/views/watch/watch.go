// Package watch renders the progress of a single processing job.
package watch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

const (
	defaultBarWidth = 50
	minBarWidth     = 10
)

// View renders a job's stage, progress bar, warnings and metrics.
type View struct {
	styles      *styles.Styles
	progress    progress.Model
	spinner     spinner.Model
	showDetails bool
}

// NewView creates a job progress view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	theme := s.Theme()

	return &View{
		styles: s,
		progress: progress.New(
			progress.WithGradient(string(theme.Primary), string(theme.Secondary)),
			progress.WithWidth(defaultBarWidth),
			progress.WithoutPercentage(),
		),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(s.StageActive),
		),
		showDetails: true,
	}
}

// Init starts the spinner.
func (v *View) Init() tea.Cmd {
	return v.spinner.Tick
}

// Update advances the spinner animation.
func (v *View) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return nil
	}
	var cmd tea.Cmd
	v.spinner, cmd = v.spinner.Update(msg)
	return cmd
}

// SetWidth fits the progress bar to the terminal width.
func (v *View) SetWidth(width int) {
	w := width - 16
	if w > defaultBarWidth {
		w = defaultBarWidth
	}
	if w < minBarWidth {
		w = minBarWidth
	}
	v.progress.Width = w
}

// ToggleDetails shows or hides warnings and metrics.
func (v *View) ToggleDetails() {
	v.showDetails = !v.showDetails
}

// ShowDetails reports whether warnings and metrics are shown.
func (v *View) ShowDetails() bool {
	return v.showDetails
}

// Render draws the job. pollErr is the last transient poll failure.
func (v *View) Render(job *domain.Job, pollErr error) string {
	if job == nil {
		return v.styles.Muted.Render("No job is being tracked.")
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("InsightGen job " + job.ID))
	b.WriteString("\n\n")
	b.WriteString(v.renderHeadline(job))
	b.WriteString("\n")
	b.WriteString(v.progress.ViewAs(float64(job.ProgressPercent) / 100))
	b.WriteString(fmt.Sprintf(" %3d%%\n\n", job.ProgressPercent))
	b.WriteString(v.renderStages(job))

	elapsed := time.Duration(job.ElapsedSeconds) * time.Second
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Elapsed " + elapsed.String()))
	b.WriteString("\n")

	var pe *domain.PollError
	if pollErr != nil && errors.As(pollErr, &pe) && !job.IsTerminal() {
		b.WriteString(v.styles.Warning.Render("Status check failed, retrying: " + pe.Err.Error()))
		b.WriteString("\n")
	}

	if v.showDetails {
		b.WriteString(v.renderWarnings(job.Warnings))
		b.WriteString(v.renderMetrics(job.Metrics))
	}

	return v.styles.Frame.Render(strings.TrimRight(b.String(), "\n"))
}

func (v *View) renderHeadline(job *domain.Job) string {
	switch job.Status {
	case domain.JobStatusCompleted:
		name := "result ready"
		if job.OutputFilename != nil {
			name = *job.OutputFilename
		}
		return v.styles.Success.Render("✓ Completed: " + name)
	case domain.JobStatusFailed:
		msg := "Unknown error"
		if job.Message != nil {
			msg = *job.Message
		}
		return v.styles.Error.Render("✗ Failed: " + msg)
	case domain.JobStatusTimedOut:
		return v.styles.Error.Render("✗ Timed out waiting for the server")
	case domain.JobStatusCancelled:
		return v.styles.Muted.Render("Stopped tracking this job")
	default:
		if job.Stage == domain.StageNone {
			return v.spinner.View() + " Waiting for the server..."
		}
		return v.spinner.View() + " " + v.styles.StageActive.Render(job.Stage.String()) +
			" " + v.styles.Muted.Render(job.Stage.Detail())
	}
}

func (v *View) renderStages(job *domain.Job) string {
	var b strings.Builder
	for i := 1; i <= domain.StageCount; i++ {
		stage := domain.Stage(i)
		switch {
		case job.Status == domain.JobStatusCompleted || (job.Stage != domain.StageNone && stage < job.Stage):
			b.WriteString(v.styles.StageDone.Render("  ✓ " + stage.Name()))
		case stage == job.Stage && !job.IsTerminal():
			b.WriteString(v.styles.StageActive.Render("  ● " + stage.Name()))
		default:
			b.WriteString(v.styles.StagePending.Render("  ○ " + stage.Name()))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, w := range warnings {
		if domain.IsFilenameMismatchWarning(w) {
			b.WriteString(v.styles.Warning.Bold(true).Render("⚠ " + w))
		} else {
			b.WriteString(v.styles.Warning.Render("• " + w))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderMetrics(m *domain.JobMetrics) string {
	if m == nil {
		return ""
	}
	lines := []string{
		fmt.Sprintf("Slides: %d total, %d content processed", m.TotalSlides, m.ContentSlidesProcessed),
		fmt.Sprintf("Generated: %d observations, %d headlines", m.ObservationsGenerated, m.HeadlinesGenerated),
		fmt.Sprintf("Time: %.1fs total, %.1fs per content slide", m.TotalTimeSeconds, m.AverageTimePerContentSlide),
	}
	if m.Errors > 0 {
		lines = append(lines, v.styles.Error.Render(fmt.Sprintf("Errors: %d", m.Errors)))
	}
	return "\n" + v.styles.Normal.Render(strings.Join(lines, "\n")) + "\n"
}
