package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// Ensure JobOrchestrator implements the interface.
var _ driving.JobOrchestrator = (*JobOrchestrator)(nil)

// unknownFailure is reported when the server fails a job without a message.
const unknownFailure = "Unknown error"

// OrchestratorConfig tunes the orchestrator.
type OrchestratorConfig struct {
	// JobTimeout is the elapsed time after which a job is marked timed out.
	JobTimeout time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// JobOrchestrator owns the lifecycle of one job at a time.
type JobOrchestrator struct {
	api        driven.JobAPI
	sessions   driving.SessionManager
	intake     driving.FileIntake
	inspection driving.InspectionService
	timeout    time.Duration
	now        func() time.Time

	mu          sync.Mutex
	state       driving.OrchestratorState
	job         *domain.Job
	primaryName string
	startedAt   time.Time
	lastErr     error
	inFlight    bool
}

// NewJobOrchestrator creates an idle orchestrator.
func NewJobOrchestrator(
	api driven.JobAPI,
	sessions driving.SessionManager,
	intake driving.FileIntake,
	inspection driving.InspectionService,
	cfg OrchestratorConfig,
) *JobOrchestrator {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = domain.DefaultJobTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &JobOrchestrator{
		api:        api,
		sessions:   sessions,
		intake:     intake,
		inspection: inspection,
		timeout:    cfg.JobTimeout,
		now:        cfg.Now,
		state:      driving.StateIdle,
	}
}

// Submit uploads the selected files and starts tracking the new job.
func (o *JobOrchestrator) Submit(ctx context.Context, req domain.JobRequest) (*domain.Job, error) {
	snap := o.intake.Snapshot()
	if !snap.Ready() {
		return nil, domain.ErrFilesNotReady
	}
	result, ok := o.inspection.Latest()
	if !ok {
		return nil, domain.ErrInspectionRequired
	}
	if !result.IsValid {
		return nil, domain.ErrInspectionInvalid
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.Clone()

	o.mu.Lock()
	if o.state.IsActive() {
		o.mu.Unlock()
		return nil, domain.ErrJobActive
	}
	o.state = driving.StateSubmitting
	o.job = nil
	o.lastErr = nil
	o.primaryName = snap.Primary.Name
	started := o.now()
	o.mu.Unlock()

	logger.Debug("submitting %s with generator %s", snap.Primary.Name, req.GeneratorID)

	submitted, err := o.api.SubmitJob(ctx, o.sessions.Credentials(), *snap.Primary, *snap.Reference, req)
	if err != nil {
		handleRejection(o.sessions, err)
		subErr := domain.NewSubmitError(err)

		o.mu.Lock()
		defer o.mu.Unlock()
		if o.state == driving.StateSubmitting {
			o.state = driving.StateFailed
			o.lastErr = subErr
		}
		logger.Event("job submission failed", "kind", string(subErr.Kind), "detail", subErr.Detail)
		return nil, subErr
	}

	job := &domain.Job{
		ID:              submitted.JobID,
		Status:          domain.JobStatusSubmitted,
		Stage:           domain.InitialProgress.Stage,
		ProgressPercent: domain.InitialProgress.Percent,
		Warnings:        append([]string(nil), submitted.Warnings...),
		Request:         req,
		SubmittedAt:     started,
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == driving.StateCancelled {
		// Cancelled while the upload was in flight; remember the id so the
		// user can still see what was started server-side.
		job.Status = domain.JobStatusCancelled
		job.Stage = domain.StageNone
		o.job = job
		return job.Clone(), nil
	}

	o.job = job
	o.startedAt = started
	o.state = driving.StatePolling

	for _, w := range job.Warnings {
		if domain.IsFilenameMismatchWarning(w) {
			logger.Warn("%s", w)
		}
	}
	logger.Event("job submitted", "job_id", job.ID, "generator", req.GeneratorID, "warnings", len(job.Warnings))

	return job.Clone(), nil
}

// Resume tracks a job submitted elsewhere. Elapsed time and the progress
// estimate restart from the moment of the call.
func (o *JobOrchestrator) Resume(jobID string) (*domain.Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id is required", domain.ErrInvalidInput)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.IsActive() {
		return nil, domain.ErrJobActive
	}

	now := o.now()
	o.job = &domain.Job{
		ID:              jobID,
		Status:          domain.JobStatusSubmitted,
		Stage:           domain.InitialProgress.Stage,
		ProgressPercent: domain.InitialProgress.Percent,
		SubmittedAt:     now,
	}
	o.primaryName = ""
	o.startedAt = now
	o.lastErr = nil
	o.state = driving.StatePolling

	logger.Debug("resumed job %s", jobID)
	return o.job.Clone(), nil
}

// PollOnce fetches the job status once and applies it. Terminal jobs are
// returned unchanged without a request.
func (o *JobOrchestrator) PollOnce(ctx context.Context) (*domain.Job, error) {
	o.mu.Lock()
	if o.job == nil {
		o.mu.Unlock()
		return nil, domain.ErrNoActiveJob
	}
	if o.state.IsTerminal() {
		job := o.job.Clone()
		o.mu.Unlock()
		return job, nil
	}
	if o.inFlight {
		o.mu.Unlock()
		return nil, domain.ErrPollInFlight
	}

	elapsed := o.now().Sub(o.startedAt)
	o.job.ElapsedSeconds = int(elapsed / time.Second)

	if elapsed >= o.timeout {
		o.job.Status = domain.JobStatusTimedOut
		o.job.Stage = domain.StageNone
		o.state = driving.StateTimedOut
		job := o.job.Clone()
		o.mu.Unlock()
		logger.Event("job timed out", "job_id", job.ID, "elapsed_seconds", job.ElapsedSeconds)
		return job, nil
	}

	o.inFlight = true
	jobID := o.job.ID
	o.mu.Unlock()

	report, err := o.api.JobStatus(ctx, o.sessions.Credentials(), jobID)
	if err != nil {
		handleRejection(o.sessions, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false

	if o.job == nil || o.job.ID != jobID || o.state != driving.StatePolling {
		// Cancelled or replaced while the request was in flight.
		if o.job == nil {
			return nil, domain.ErrNoActiveJob
		}
		return o.job.Clone(), nil
	}

	if err != nil {
		logger.Debug("poll %s failed: %v", jobID, err)
		return nil, &domain.PollError{JobID: jobID, Err: err}
	}

	o.apply(report, elapsed)
	return o.job.Clone(), nil
}

// apply folds a status report into the job. Caller holds the lock.
func (o *JobOrchestrator) apply(report *driven.JobStatusReport, elapsed time.Duration) {
	job := o.job
	if len(report.Warnings) > 0 {
		job.Warnings = append([]string(nil), report.Warnings...)
	}

	switch report.Status {
	case domain.JobStatusCompleted:
		job.Status = domain.JobStatusCompleted
		job.Stage = domain.StageNone
		job.ProgressPercent = 100
		if report.Metrics != nil {
			m := *report.Metrics
			job.Metrics = &m
		}
		if report.OutputFilename != nil {
			name := *report.OutputFilename
			job.OutputFilename = &name
		}
		o.state = driving.StateCompleted
		logger.Event("job completed", "job_id", job.ID, "elapsed_seconds", job.ElapsedSeconds)

	case domain.JobStatusFailed:
		msg := unknownFailure
		if report.Message != nil && *report.Message != "" {
			msg = *report.Message
		}
		job.Status = domain.JobStatusFailed
		job.Stage = domain.StageNone
		job.Message = &msg
		o.state = driving.StateFailed
		o.lastErr = fmt.Errorf("job %s failed: %s", job.ID, msg)
		logger.Event("job failed", "job_id", job.ID, "message", msg)

	default:
		progress, err := domain.EstimateProgress(elapsed.Seconds())
		if err != nil {
			// Clock went backwards; keep the previous estimate.
			logger.Debug("progress estimate for %s: %v", job.ID, err)
			job.Status = report.Status
			return
		}
		job.Status = report.Status
		job.Stage = progress.Stage
		if progress.Percent > job.ProgressPercent {
			job.ProgressPercent = progress.Percent
		}
	}
}

// Cancel stops tracking the active job. The server is not told.
func (o *JobOrchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.state.IsActive() {
		return domain.ErrNoActiveJob
	}
	o.state = driving.StateCancelled
	if o.job != nil {
		o.job.Status = domain.JobStatusCancelled
		o.job.Stage = domain.StageNone
		logger.Event("job cancelled", "job_id", o.job.ID)
	}
	return nil
}

// Snapshot returns a copy of the current job.
func (o *JobOrchestrator) Snapshot() (*domain.Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.job == nil {
		return nil, false
	}
	return o.job.Clone(), true
}

// State returns the lifecycle state.
func (o *JobOrchestrator) State() driving.OrchestratorState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastError returns the submission or job failure that ended the last job.
func (o *JobOrchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Download streams the processed presentation of the completed job to w.
func (o *JobOrchestrator) Download(ctx context.Context, w io.Writer) (string, error) {
	o.mu.Lock()
	if o.job == nil || o.job.Status != domain.JobStatusCompleted {
		o.mu.Unlock()
		return "", domain.ErrJobNotCompleted
	}
	jobID := o.job.ID
	name := outputName(o.job, o.primaryName)
	o.mu.Unlock()

	n, err := o.api.DownloadResult(ctx, o.sessions.Credentials(), jobID, w)
	if err != nil {
		handleRejection(o.sessions, err)
		return "", fmt.Errorf("download job %s: %w", jobID, err)
	}

	logger.Event("result downloaded", "job_id", jobID, "bytes", n, "file", name)
	return name, nil
}

// outputName picks the file name for a job's result.
func outputName(job *domain.Job, primaryName string) string {
	if job.OutputFilename != nil && *job.OutputFilename != "" {
		return *job.OutputFilename
	}
	if primaryName != "" {
		return "processed_" + primaryName
	}
	return "processed_" + job.ID + ".pptx"
}
