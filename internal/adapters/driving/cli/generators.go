package cli

import (
	"github.com/spf13/cobra"
)

var generatorsJSON bool

var generatorsCmd = &cobra.Command{
	Use:   "generators",
	Short: "List generation profiles",
	Long: `List the generation profiles offered by the analysis service.

When the service cannot be reached the last known list, or the built-in
default profile, is shown instead.`,
	Args: cobra.NoArgs,
	RunE: runGenerators,
}

func init() {
	generatorsCmd.Flags().BoolVar(&generatorsJSON, "json", false, "print the list as JSON")
	rootCmd.AddCommand(generatorsCmd)
}

func runGenerators(cmd *cobra.Command, _ []string) error {
	if err := requireServices(sessionManager, generatorCatalog); err != nil {
		return err
	}
	if err := ensureSession(cmd); err != nil {
		return err
	}

	generators := generatorCatalog.List(cmd.Context())
	if generatorsJSON {
		return printJSON(cmd, generators)
	}

	if len(generators) == 0 {
		cmd.Println("No generators available.")
		return nil
	}
	for _, g := range generators {
		cmd.Printf("%s\t%s\n", g.ID, g.Name)
		if g.ExamplePrompt != "" {
			cmd.Printf("  example prompt: %s\n", g.ExamplePrompt)
		}
	}
	return nil
}
