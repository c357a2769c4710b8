package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the analysis service is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if err := requireServices(statusService); err != nil {
		return err
	}

	status := statusService.Check(cmd.Context())
	if !status.Reachable {
		cmd.Printf("%s: unreachable\n", status.APIURL)
		return fmt.Errorf("analysis service unavailable: %w", status.Err)
	}

	version := status.Version
	if version == "" {
		version = "unknown"
	}
	cmd.Printf("%s: ok (version %s)\n", status.APIURL, version)
	return nil
}
