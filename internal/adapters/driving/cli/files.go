package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

// selectFiles reads both documents from disk into the file intake.
func selectFiles(primaryPath, referencePath string) error {
	primary, err := readSourceFile(domain.FileRolePrimary, primaryPath)
	if err != nil {
		return err
	}
	reference, err := readSourceFile(domain.FileRoleReference, referencePath)
	if err != nil {
		return err
	}
	if err := fileIntake.SetPrimary(primary); err != nil {
		return err
	}
	return fileIntake.SetReference(reference)
}

func readSourceFile(role domain.FileRole, path string) (domain.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceFile{}, fmt.Errorf("reading %s file: %w", role, err)
	}
	return domain.NewSourceFile(role, filepath.Base(path), data)
}

// printWarnings lists server warnings, flagging filename mismatches.
func printWarnings(cmd *cobra.Command, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	cmd.Println("Warnings:")
	for _, w := range warnings {
		if domain.IsFilenameMismatchWarning(w) {
			cmd.Printf("  ! %s\n", w)
			cmd.Println("    Make sure the PDF is a rendering of this presentation.")
			continue
		}
		cmd.Printf("  - %s\n", w)
	}
}

func printInspection(cmd *cobra.Command, result *domain.InspectionResult) {
	if result.IsValid {
		cmd.Println("Files are valid for processing.")
	} else {
		cmd.Println("Files are NOT valid for processing.")
	}
	if stats := result.SlideStats; stats != nil {
		cmd.Printf("Slides: %d total\n", stats.TotalSlides)
		printSlideGroup(cmd, "Header slides", stats.HeaderSlides)
		printSlideGroup(cmd, "Content slides", stats.ContentSlides)
		printSlideGroup(cmd, "Missing placeholders", stats.MissingPlaceholders)
	}
	printWarnings(cmd, result.Warnings)
}

func printSlideGroup(cmd *cobra.Command, label string, group domain.SlideGroup) {
	if len(group.SlideNumbers) == 0 {
		cmd.Printf("  %s: %d\n", label, group.Count)
		return
	}
	numbers := make([]string, len(group.SlideNumbers))
	for i, n := range group.SlideNumbers {
		numbers[i] = strconv.Itoa(n)
	}
	cmd.Printf("  %s: %d (%s)\n", label, group.Count, strings.Join(numbers, ", "))
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
