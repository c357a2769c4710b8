package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

var (
	statusJSON bool

	watchDownload bool
	watchOutput   string
	watchPlain    bool

	downloadOutput string
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of a job",
	Long: `Fetch the current status of a job once.

The stage and percentage are estimates based on the time since this command
started tracking the job.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Follow a job until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var downloadCmd = &cobra.Command{
	Use:   "download <job-id>",
	Short: "Download the result of a completed job",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the job as JSON")

	watchCmd.Flags().BoolVarP(&watchDownload, "download", "d", false, "download the result when the job completes")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "output file or directory")
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "print progress lines instead of the progress view")

	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file or directory")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(downloadCmd)
}

// trackJob logs in and starts tracking an existing job.
func trackJob(cmd *cobra.Command, jobID string) error {
	if err := requireServices(sessionManager, jobOrchestrator); err != nil {
		return err
	}
	if err := ensureSession(cmd); err != nil {
		return err
	}
	_, err := jobOrchestrator.Resume(jobID)
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := trackJob(cmd, args[0]); err != nil {
		return err
	}
	job, err := jobOrchestrator.PollOnce(cmd.Context())
	if err != nil {
		return err
	}
	if statusJSON {
		return printJSON(cmd, job)
	}

	cmd.Printf("Job %s: %s\n", job.ID, job.Status)
	switch job.Status {
	case domain.JobStatusCompleted:
		if job.OutputFilename != nil {
			cmd.Printf("Output: %s\n", *job.OutputFilename)
		}
		printMetrics(cmd, job.Metrics)
	case domain.JobStatusFailed:
		if job.Message != nil {
			cmd.Printf("Message: %s\n", *job.Message)
		}
	}
	printWarnings(cmd, job.Warnings)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := trackJob(cmd, args[0]); err != nil {
		return err
	}
	job, err := watchJob(cmd, watchPlain)
	if err != nil {
		return err
	}
	if err := reportOutcome(cmd, job); err != nil {
		return err
	}
	if !watchDownload {
		return nil
	}
	_, err = saveResult(cmd, watchOutput)
	return err
}

func runDownload(cmd *cobra.Command, args []string) error {
	if err := trackJob(cmd, args[0]); err != nil {
		return err
	}
	job, err := jobOrchestrator.PollOnce(cmd.Context())
	if err != nil {
		return err
	}
	if job.Status != domain.JobStatusCompleted {
		cmd.Printf("Job %s is %s.\n", job.ID, job.Status)
		return domain.ErrJobNotCompleted
	}
	_, err = saveResult(cmd, downloadOutput)
	return err
}
