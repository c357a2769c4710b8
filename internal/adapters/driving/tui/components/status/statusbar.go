// Package status provides the status bar shown under the job progress view.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

// State represents the watch state for display.
type State string

const (
	StatePolling  State = "polling"
	StateRetrying State = "retrying"
	StateFinished State = "finished"
)

// Bar displays the tracked job, elapsed time and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	jobID   string
	elapsed int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StatePolling,
		width:  80,
	}
}

// SetJob records the job shown in the bar.
func (s *Bar) SetJob(job *domain.Job) {
	if job == nil {
		return
	}
	s.jobID = job.ID
	s.elapsed = job.ElapsedSeconds
	if job.IsTerminal() {
		s.state = StateFinished
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	// Width counts the style's own padding, so the content gets what is left.
	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	padding := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	elapsed := (time.Duration(s.elapsed) * time.Second).String()
	switch s.state {
	case StateRetrying:
		if s.message != "" {
			return s.styles.Warning.Render(fmt.Sprintf("Retrying: %s", s.message))
		}
		return s.styles.Warning.Render("Retrying")
	case StateFinished:
		return s.styles.Muted.Render(fmt.Sprintf("job %s · %s", s.jobID, elapsed))
	default:
		return s.styles.Normal.Render(fmt.Sprintf("job %s · %s", s.jobID, elapsed))
	}
}

func (s *Bar) renderRight() string {
	if s.state == StateFinished {
		return ""
	}
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the message shown while retrying.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Bindings returns the bindings advertised by the bar.
func (s *Bar) Bindings() []key.Binding {
	return s.keymap.ShortHelp()
}
