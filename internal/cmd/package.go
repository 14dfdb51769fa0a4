package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dosanma1/crossdeck/internal/archive"
)

var packageFormat string

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Archive the staging tree into the distributable",
	Long: `Write the distributable archive from the staging tree produced by
collect. The package directory stays the archive's single top-level
entry, so extraction reproduces it exactly.

Examples:
  crossdeck package                   # Use the configured format
  crossdeck package --format tar.gz   # Override the archive format`,
	RunE: runPackage,
}

func init() {
	rootCmd.AddCommand(packageCmd)
	packageCmd.Flags().StringVar(&packageFormat, "format", "", "Archive format (zip|tar.gz), overrides the config")
}

func runPackage(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadRelease()
	if err != nil {
		return err
	}

	if packageFormat != "" {
		if _, err := archive.ParseFormat(packageFormat); err != nil {
			return err
		}
		// The archive filename derives from the format.
		cfg.Dist.Format = packageFormat
	}

	p := newStagingPipeline(root, cfg, false)
	if err := p.RunPackage(cmd.Context()); err != nil {
		return reportFailure(err)
	}

	fmt.Printf("\n📦 Archive written to %s\n", cfg.ArchivePath(root))
	return nil
}
