package domain

import (
	"fmt"
	"strings"
	"time"
)

// Context window bounds for a job request.
const (
	MinContextWindowSize     = 0
	MaxContextWindowSize     = 50
	DefaultContextWindowSize = 20
)

// JobRequest configures a generation job.
type JobRequest struct {
	// GeneratorID selects the generation profile.
	GeneratorID string
	// UserPrompt carries market, brand context and extra instructions.
	UserPrompt string
	// ContextWindowSize is the number of previous slides kept in context.
	ContextWindowSize int
	// FewShotExamples is nil when the caller supplied none.
	FewShotExamples *string
}

// Validate checks the request before submission.
func (r JobRequest) Validate() error {
	if strings.TrimSpace(r.GeneratorID) == "" {
		return fmt.Errorf("%w: generator is required", ErrInvalidInput)
	}
	if r.ContextWindowSize < MinContextWindowSize || r.ContextWindowSize > MaxContextWindowSize {
		return fmt.Errorf("%w: context window size must be between %d and %d, got %d",
			ErrInvalidInput, MinContextWindowSize, MaxContextWindowSize, r.ContextWindowSize)
	}
	return nil
}

// Clone returns a copy that shares no memory with r.
func (r JobRequest) Clone() JobRequest {
	out := r
	if r.FewShotExamples != nil {
		examples := *r.FewShotExamples
		out.FewShotExamples = &examples
	}
	return out
}

// JobStatus is the lifecycle status of a job.
type JobStatus string

const (
	JobStatusSubmitted  JobStatus = "submitted"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusTimedOut   JobStatus = "timed_out"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition can occur.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusTimedOut, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s JobStatus) String() string {
	return string(s)
}

// ParseRemoteJobStatus converts a status reported by the server. Only the
// four statuses the server emits are accepted; timed_out and cancelled are
// client-side outcomes.
func ParseRemoteJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case JobStatusSubmitted, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return JobStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown job status %q", ErrUnexpectedResponse, s)
	}
}

// JobMetrics are the performance figures reported for a completed job.
type JobMetrics struct {
	TotalSlides                int     `json:"total_slides"`
	ContentSlidesProcessed     int     `json:"content_slides_processed"`
	ObservationsGenerated      int     `json:"observations_generated"`
	HeadlinesGenerated         int     `json:"headlines_generated"`
	Errors                     int     `json:"errors"`
	TotalTimeSeconds           float64 `json:"total_time_seconds"`
	AverageTimePerContentSlide float64 `json:"average_time_per_content_slide"`
}

// Job is the client-side view of a server job. It is created when a
// submission succeeds and mutated only by the orchestrator's poll loop.
type Job struct {
	// ID is the opaque server job identifier.
	ID string `json:"id"`

	// Status is the lifecycle status.
	Status JobStatus `json:"status"`

	// ElapsedSeconds counts whole seconds since submission.
	ElapsedSeconds int `json:"elapsed_seconds"`

	// Stage is the estimated processing stage; StageNone once terminal
	// statuses make estimates meaningless.
	Stage Stage `json:"stage"`

	// ProgressPercent is 0..100; 100 only after confirmed completion.
	ProgressPercent int `json:"progress_percent"`

	// Warnings are server warnings in server order.
	Warnings []string `json:"warnings,omitempty"`

	// Metrics is nil until the server reports them.
	Metrics *JobMetrics `json:"metrics,omitempty"`

	// OutputFilename is nil until the server reports it.
	OutputFilename *string `json:"output_filename,omitempty"`

	// Message is the server's free-text message for failed jobs.
	Message *string `json:"message,omitempty"`

	// Request is the job's own copy of what was submitted.
	Request JobRequest `json:"-"`

	// SubmittedAt is when submission started.
	SubmittedAt time.Time `json:"submitted_at"`
}

// IsTerminal reports whether the job has reached a terminal status.
func (j *Job) IsTerminal() bool {
	return j != nil && j.Status.IsTerminal()
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	out.Warnings = cloneStrings(j.Warnings)
	out.Request = j.Request.Clone()
	if j.Metrics != nil {
		m := *j.Metrics
		out.Metrics = &m
	}
	if j.OutputFilename != nil {
		name := *j.OutputFilename
		out.OutputFilename = &name
	}
	if j.Message != nil {
		msg := *j.Message
		out.Message = &msg
	}
	return &out
}

// FilenameMismatchMarker prefixes server warnings about differing file names.
const FilenameMismatchMarker = "Filename mismatch"

// IsFilenameMismatchWarning reports whether a warning flags differing
// primary and reference file names. Processing continues regardless.
func IsFilenameMismatchWarning(w string) bool {
	return strings.Contains(w, FilenameMismatchMarker)
}
