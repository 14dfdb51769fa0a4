package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dosanma1/crossdeck/internal/ui"
)

var cleanYes bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove build, staging and archive output",
	Long: `Remove everything crossdeck produced: the per-target build
directories, the staging tree and the release archive.

Sources and configuration are never touched.

Examples:
  # Remove all pipeline output, asking for confirmation first
  crossdeck clean

  # Skip the confirmation prompt
  crossdeck clean --yes`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadRelease()
	if err != nil {
		return err
	}

	paths := []string{
		cfg.BuildRoot(root),
		cfg.StagingRoot(root),
		cfg.ArchivePath(root),
	}

	existing := paths[:0]
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		fmt.Println("✅ Nothing to clean")
		return nil
	}

	if !cleanYes {
		fmt.Println("The following will be removed:")
		for _, path := range existing {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			fmt.Printf("  %s\n", rel)
		}
		ok, err := ui.AskConfirm("Continue?", false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted")
			return nil
		}
	}

	for _, path := range existing {
		fmt.Printf("🗑️  Removing %s\n", path)
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}

	fmt.Println("✅ Clean completed")
	return nil
}
