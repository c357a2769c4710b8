// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

// PollTick is sent when the poll interval elapses. The next tick is only
// scheduled after the poll it triggered has returned.
type PollTick struct{}

// PollCompleted carries the outcome of one status poll.
type PollCompleted struct {
	// Job is the job snapshot after the poll; nil if no job is tracked.
	Job *domain.Job
	// Err is the poll failure, if any. *domain.PollError is transient.
	Err error
}

// JobCancelled is sent after the user stopped tracking the job.
type JobCancelled struct {
	Job *domain.Job
}
