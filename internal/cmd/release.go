package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var releaseOpts buildOptions

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Build every target, stage artifacts and produce the archive",
	Long: `Run the full release pipeline: build every declared target, collect
the binaries together with the manifest and assets into the staging
tree, and package the result into the distributable archive.

Builds run in parallel. Collection starts only after every build
succeeded; packaging only after collection. When a build fails, the
downstream steps are skipped and the failing target is reported.

Examples:
  crossdeck release                  # Full release with defaults
  crossdeck release -f               # Wipe stale staging without asking
  crossdeck release -j 2 --verbose   # Two builds at a time, streamed output`,
	RunE: runRelease,
}

func init() {
	rootCmd.AddCommand(releaseCmd)
	releaseOpts.register(releaseCmd)
	releaseCmd.Flags().BoolVarP(&releaseOpts.cleanStage, "clean-staging", "f", false, "Remove a stale staging tree without asking")
}

func runRelease(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadRelease()
	if err != nil {
		return err
	}

	p, err := newPipeline(root, cfg, &releaseOpts)
	if err != nil {
		return err
	}
	if !releaseOpts.verbose {
		// Build + collect + package tasks, one bar tick per terminal
		// state.
		p.Notify = newTaskProgress(len(cfg.Targets) + 2).print
	}

	fmt.Printf("🚀 Releasing %s (%d targets)\n\n", cfg.Package, len(cfg.Targets))
	start := time.Now()
	if err := p.RunRelease(cmd.Context()); err != nil {
		return reportFailure(err)
	}

	fmt.Printf("\n📦 %s (%s)\n", cfg.ArchivePath(root), time.Since(start).Round(time.Millisecond))
	return nil
}
