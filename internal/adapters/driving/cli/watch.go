package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/insightgen-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/services"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// clientSettings returns the effective settings, or defaults when the
// stored ones are unusable.
func clientSettings() domain.ClientSettings {
	if settingsService == nil {
		return domain.DefaultClientSettings()
	}
	s, err := settingsService.Get()
	if err != nil {
		logger.Warn("using default settings: %v", err)
		return domain.DefaultClientSettings()
	}
	return *s
}

// watchJob polls the tracked job until it is terminal. Terminals get the
// progress view unless plain is set; everything else gets one line per
// change.
func watchJob(cmd *cobra.Command, plain bool) (*domain.Job, error) {
	interval := clientSettings().PollInterval
	if !plain && isTerminal(cmd.OutOrStdout()) {
		return tui.Run(cmd.Context(), tui.NewPorts(jobOrchestrator, interval),
			tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	}

	var lastLine string
	observer := func(job *domain.Job, err error) {
		var pe *domain.PollError
		if errors.As(err, &pe) {
			cmd.Printf("status check failed, retrying: %v\n", pe.Err)
			return
		}
		line := progressLine(job)
		if line != lastLine {
			cmd.Println(line)
			lastLine = line
		}
	}
	if job, ok := jobOrchestrator.Snapshot(); ok {
		observer(job, nil)
	}
	return services.NewPoller(jobOrchestrator, interval, observer).Run(cmd.Context())
}

// progressLine summarises a job in one line. Elapsed time is left out so
// unchanged progress prints once.
func progressLine(job *domain.Job) string {
	switch job.Status {
	case domain.JobStatusCompleted, domain.JobStatusFailed,
		domain.JobStatusTimedOut, domain.JobStatusCancelled:
		return fmt.Sprintf("[%3d%%] %s", job.ProgressPercent, job.Status)
	}
	if job.Stage == domain.StageNone {
		return fmt.Sprintf("[%3d%%] %s", job.ProgressPercent, job.Status)
	}
	return fmt.Sprintf("[%3d%%] %s - %s", job.ProgressPercent, job.Stage, job.Stage.Detail())
}

// reportOutcome prints the final state of a job and turns unsuccessful
// outcomes into errors.
func reportOutcome(cmd *cobra.Command, job *domain.Job) error {
	if job == nil {
		return domain.ErrNoActiveJob
	}
	elapsed := time.Duration(job.ElapsedSeconds) * time.Second

	switch job.Status {
	case domain.JobStatusCompleted:
		cmd.Printf("Job %s completed in %s.\n", job.ID, elapsed)
		printMetrics(cmd, job.Metrics)
		printWarnings(cmd, job.Warnings)
		return nil
	case domain.JobStatusFailed:
		printWarnings(cmd, job.Warnings)
		if err := jobOrchestrator.LastError(); err != nil {
			return err
		}
		msg := "Unknown error"
		if job.Message != nil {
			msg = *job.Message
		}
		return fmt.Errorf("job %s failed: %s", job.ID, msg)
	case domain.JobStatusTimedOut:
		return fmt.Errorf("job %s timed out after %s; it may still finish, check with: insightgen status %s",
			job.ID, elapsed, job.ID)
	case domain.JobStatusCancelled:
		return fmt.Errorf("stopped tracking job %s; resume with: insightgen watch %s", job.ID, job.ID)
	default:
		cmd.Printf("Job %s is %s (%s, %d%%).\n", job.ID, job.Status, job.Stage, job.ProgressPercent)
		return nil
	}
}

func printMetrics(cmd *cobra.Command, m *domain.JobMetrics) {
	if m == nil {
		return
	}
	cmd.Printf("  Slides: %d total, %d content slides processed\n", m.TotalSlides, m.ContentSlidesProcessed)
	cmd.Printf("  Generated: %d observations, %d headlines\n", m.ObservationsGenerated, m.HeadlinesGenerated)
	cmd.Printf("  Time: %.1fs total, %.1fs per content slide\n", m.TotalTimeSeconds, m.AverageTimePerContentSlide)
	if m.Errors > 0 {
		cmd.Printf("  Errors: %d\n", m.Errors)
	}
}

// saveResult downloads the completed job's presentation. output may be a
// directory, a file path or empty for the working directory.
func saveResult(cmd *cobra.Command, output string) (string, error) {
	dir, file := resolveOutput(output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".insightgen-*.part")
	if err != nil {
		return "", fmt.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after the rename

	name, err := jobOrchestrator.Download(cmd.Context(), tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("writing output file: %w", closeErr)
	}
	if err != nil {
		return "", err
	}

	if file == "" {
		file = filepath.Base(name)
	}
	path := filepath.Join(dir, file)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("saving output file: %w", err)
	}
	cmd.Printf("Saved %s\n", path)
	return path, nil
}

func resolveOutput(output string) (dir, file string) {
	if output == "" {
		return ".", ""
	}
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)) {
		return filepath.Clean(output), ""
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return output, ""
	}
	return filepath.Dir(output), filepath.Base(output)
}
