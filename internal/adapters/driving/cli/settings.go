package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/insightgen-cli/internal/core/services"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage client settings",
	Long: `View and change client settings stored in the config file.

The API URL can also be set with --api-url or the ` + services.EnvAPIURL + `
environment variable, which take precedence over the file.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Validate and store a single setting.

Keys:
  ` + strings.Join(services.SettingKeys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := requireServices(settingsService); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("stored settings are invalid, fix them with 'insightgen config set': %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[API]")
	cmd.Printf("  %s: %s\n", services.KeyAPIURL, settings.APIURL)
	cmd.Printf("  %s: %d\n", services.KeyAPITimeout, int(settings.APITimeout.Seconds()))
	cmd.Printf("  %s: %g\n", services.KeyRequestsPerSecond, settings.RequestsPerSecond)
	cmd.Println()

	cmd.Println("[Job]")
	cmd.Printf("  %s: %d\n", services.KeyPollInterval, int(settings.PollInterval.Seconds()))
	cmd.Printf("  %s: %d\n", services.KeyJobTimeout, int(settings.JobTimeout.Seconds()))
	cmd.Printf("  %s: %d\n", services.KeyContextWindowSize, settings.ContextWindowSize)
	cmd.Println()

	cmd.Println("[Auth]")
	cmd.Printf("  %s: %s\n", services.KeyUsername, orNotSet(settings.Username))
	cmd.Println()

	cmd.Println("[Log]")
	cmd.Printf("  %s: %s\n", services.KeyLogFile, orNotSet(settings.LogFile))
	cmd.Println()

	cmd.Printf("Config file: %s\n", settingsService.ConfigPath())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := requireServices(settingsService); err != nil {
		return err
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if err := requireServices(settingsService); err != nil {
		return err
	}
	cmd.Println(settingsService.ConfigPath())
	return nil
}

func orNotSet(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
