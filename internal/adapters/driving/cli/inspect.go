package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <presentation.pptx> <reference.pdf>",
	Short: "Validate a presentation and its PDF rendering",
	Long: `Send both documents to the analysis service for validation.

The service checks that the files match and reports slide statistics:
header slides, content slides and slides missing a headline placeholder.
The command fails when the service reports the files as invalid.`,
	Args: cobra.ExactArgs(2),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := requireServices(sessionManager, fileIntake, inspectionService); err != nil {
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

	if inspectJSON {
		if err := printJSON(cmd, result); err != nil {
			return err
		}
	} else {
		printInspection(cmd, result)
	}

	if !result.IsValid {
		return domain.ErrInspectionInvalid
	}
	return nil
}
