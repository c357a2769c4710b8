// Package cli implements the insightgen command line.
// It is a driving adapter: commands translate flags and arguments into
// calls on the core's driving ports.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// EnvPassword supplies the account password without prompting.
const EnvPassword = "INSIGHTGEN_PASSWORD"

// Options are the global flag values.
type Options struct {
	Verbose   bool
	ConfigDir string
	APIURL    string
	Username  string
}

// Services are the core services the commands drive.
type Services struct {
	Sessions   driving.SessionManager
	Intake     driving.FileIntake
	Inspection driving.InspectionService
	Catalog    driving.GeneratorCatalog
	Jobs       driving.JobOrchestrator
	Settings   driving.SettingsService
	Status     driving.StatusService
}

// Bootstrap builds the services once global flags are parsed.
type Bootstrap func(opts Options) (*Services, error)

var (
	globalOpts Options
	bootstrap  Bootstrap

	sessionManager    driving.SessionManager
	fileIntake        driving.FileIntake
	inspectionService driving.InspectionService
	generatorCatalog  driving.GeneratorCatalog
	jobOrchestrator   driving.JobOrchestrator
	settingsService   driving.SettingsService
	statusService     driving.StatusService
)

var rootCmd = &cobra.Command{
	Use:   "insightgen",
	Short: "Generate slide headlines with the InsightGen analysis service",
	Long: `insightgen sends a presentation (PPTX) and its PDF rendering to the
InsightGen analysis service, tracks the processing job and downloads the
presentation with generated observations and headlines.

Typical workflow:
  insightgen inspect deck.pptx deck.pdf
  insightgen submit deck.pptx deck.pdf --generator bgs_default -o out/

Set the account with --username or 'insightgen config set auth.username <name>'.
The password is read from ` + EnvPassword + ` or prompted for.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initServices,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globalOpts.Verbose, "verbose", "v", false, "enable debug output")
	flags.StringVar(&globalOpts.ConfigDir, "config-dir", "", "configuration directory (default ~/.insightgen)")
	flags.StringVar(&globalOpts.APIURL, "api-url", "", "analysis service base URL (overrides config)")
	flags.StringVarP(&globalOpts.Username, "username", "u", "", "account username (overrides config)")
}

// SetBootstrap installs the function that builds the services.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs already built services.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	sessionManager = s.Sessions
	fileIntake = s.Intake
	inspectionService = s.Inspection
	generatorCatalog = s.Catalog
	jobOrchestrator = s.Jobs
	settingsService = s.Settings
	statusService = s.Status
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, typically cancelled on
// interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func initServices(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(globalOpts.Verbose)
	if bootstrap == nil {
		return nil
	}
	s, err := bootstrap(globalOpts)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(s)
	return nil
}

// errServicesMissing is returned when a command runs without wiring.
var errServicesMissing = errors.New("services not initialised")

func requireServices(services ...any) error {
	for _, s := range services {
		if s == nil {
			return errServicesMissing
		}
	}
	return nil
}

// resolveUsername picks the --username flag, then the configured account.
func resolveUsername() string {
	if globalOpts.Username != "" {
		return globalOpts.Username
	}
	if settingsService == nil {
		return ""
	}
	settings, err := settingsService.Get()
	if err != nil {
		return ""
	}
	return settings.Username
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f any) bool {
	file, ok := f.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
