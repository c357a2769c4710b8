package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

var (
	submitGenerator      string
	submitPrompt         string
	submitPromptFile     string
	submitContextWindow  int
	submitFewShotFile    string
	submitDefaultFewShot bool
	submitOutput         string
	submitNoWait         bool
	submitNoDownload     bool
	submitPlain          bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <presentation.pptx> <reference.pdf>",
	Short: "Process a presentation and download the result",
	Long: `Inspect both documents, submit a processing job, follow its progress and
download the presentation with generated headlines.

The prompt should describe the market, the brand and any extra instructions.
When no prompt is given the generator's example prompt is used.

Examples:
  insightgen submit deck.pptx deck.pdf --prompt "UK market, brand X"
  insightgen submit deck.pptx deck.pdf -g bgs_default --default-few-shot -o out/
  insightgen submit deck.pptx deck.pdf --no-wait`,
	Args: cobra.ExactArgs(2),
	RunE: runSubmit,
}

func init() {
	flags := submitCmd.Flags()
	flags.StringVarP(&submitGenerator, "generator", "g", domain.DefaultGeneratorID, "generator id")
	flags.StringVarP(&submitPrompt, "prompt", "p", "", "market, brand context and instructions")
	flags.StringVar(&submitPromptFile, "prompt-file", "", "read the prompt from a file")
	flags.IntVar(&submitContextWindow, "context-window", -1, "previous slides kept in context (0-50, default from config)")
	flags.StringVar(&submitFewShotFile, "few-shot-file", "", "file with example observations and headlines")
	flags.BoolVar(&submitDefaultFewShot, "default-few-shot", false, "send the built-in few-shot examples")
	flags.StringVarP(&submitOutput, "output", "o", "", "output file or directory")
	flags.BoolVar(&submitNoWait, "no-wait", false, "print the job id and exit after submission")
	flags.BoolVar(&submitNoDownload, "no-download", false, "do not download the result")
	flags.BoolVar(&submitPlain, "plain", false, "print progress lines instead of the progress view")
	submitCmd.MarkFlagsMutuallyExclusive("prompt", "prompt-file")
	submitCmd.MarkFlagsMutuallyExclusive("few-shot-file", "default-few-shot")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if err := requireServices(sessionManager, fileIntake, inspectionService, generatorCatalog, jobOrchestrator); err != nil {
		return err
	}
	if err := ensureSession(cmd); err != nil {
		return err
	}
	if err := selectFiles(args[0], args[1]); err != nil {
		return err
	}

	result, err := inspectionService.Inspect(cmd.Context())
	if err != nil {
		return err
	}
	printInspection(cmd, result)
	if !result.IsValid {
		return domain.ErrInspectionInvalid
	}

	req, err := buildJobRequest(cmd)
	if err != nil {
		return err
	}

	job, err := jobOrchestrator.Submit(cmd.Context(), req)
	if err != nil {
		var serr *domain.SubmitError
		if errors.As(err, &serr) && serr.Kind.Hint() != "" {
			cmd.PrintErrln(serr.Kind.Hint())
		}
		return err
	}

	cmd.Printf("Submitted job %s\n", job.ID)
	printWarnings(cmd, job.Warnings)
	if submitNoWait {
		cmd.Printf("Follow it with: insightgen watch %s\n", job.ID)
		return nil
	}

	final, err := watchJob(cmd, submitPlain)
	if err != nil {
		return err
	}
	if err := reportOutcome(cmd, final); err != nil {
		return err
	}
	if submitNoDownload {
		cmd.Printf("Download it with: insightgen download %s\n", final.ID)
		return nil
	}
	_, err = saveResult(cmd, submitOutput)
	return err
}

// buildJobRequest assembles the request from flags, filling the prompt
// and context window from the generator and config.
func buildJobRequest(cmd *cobra.Command) (domain.JobRequest, error) {
	generators := generatorCatalog.List(cmd.Context())
	generator, ok := generatorCatalog.Get(submitGenerator)
	if !ok {
		ids := make([]string, len(generators))
		for i, g := range generators {
			ids[i] = g.ID
		}
		return domain.JobRequest{}, fmt.Errorf("%w: unknown generator %q (available: %s)",
			domain.ErrInvalidInput, submitGenerator, strings.Join(ids, ", "))
	}

	prompt := submitPrompt
	if submitPromptFile != "" {
		data, err := os.ReadFile(submitPromptFile)
		if err != nil {
			return domain.JobRequest{}, fmt.Errorf("reading prompt file: %w", err)
		}
		prompt = string(data)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = generator.ExamplePrompt
	}

	window := submitContextWindow
	if window < 0 {
		window = clientSettings().ContextWindowSize
	}

	req := domain.JobRequest{
		GeneratorID:       generator.ID,
		UserPrompt:        prompt,
		ContextWindowSize: window,
	}
	switch {
	case submitDefaultFewShot:
		examples := domain.DefaultFewShotExamples
		req.FewShotExamples = &examples
	case submitFewShotFile != "":
		data, err := os.ReadFile(submitFewShotFile)
		if err != nil {
			return domain.JobRequest{}, fmt.Errorf("reading few-shot file: %w", err)
		}
		examples := string(data)
		req.FewShotExamples = &examples
	}
	return req, req.Validate()
}
