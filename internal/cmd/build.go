package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dosanma1/crossdeck/internal/pipeline"
	"github.com/dosanma1/crossdeck/internal/release"
	"github.com/dosanma1/crossdeck/internal/ui"
)

var (
	buildOpts        buildOptions
	buildInteractive bool
)

var buildCmd = &cobra.Command{
	Use:   "build [target...]",
	Short: "Build plugin binaries for declared targets",
	Long: `Build the plugin binary for one or more declared targets.

With no arguments every declared target builds. Each target builds into
its own directory under the configured build dir, so independent builds
run in parallel.

Examples:
  crossdeck build                               # Build every target
  crossdeck build linux-x86_64                  # Build one target
  crossdeck build linux-x86_64 windows-x86_64   # Build several
  crossdeck build --interactive                 # Pick from a list
  crossdeck build -j 2 --verbose                # Bounded, streaming output`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildOpts.register(buildCmd)
	buildCmd.Flags().BoolVarP(&buildInteractive, "interactive", "i", false, "Select the target to build interactively")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadRelease()
	if err != nil {
		return err
	}

	targetIDs := args
	if buildInteractive {
		id, err := ui.AskSelect("Select a target to build", cfg.TargetIDs())
		if err != nil {
			return err
		}
		targetIDs = []string{id}
	}
	if len(targetIDs) == 0 {
		targetIDs = cfg.TargetIDs()
	}

	return runTargetBuilds(cmd.Context(), cfg, root, targetIDs)
}

func runTargetBuilds(ctx context.Context, cfg *release.Config, root string, targetIDs []string) error {
	p, err := newPipeline(root, cfg, &buildOpts)
	if err != nil {
		return err
	}

	fmt.Printf("🔨 Building %s\n", strings.Join(targetIDs, ", "))
	if err := p.RunBuilds(ctx, targetIDs); err != nil {
		return reportFailure(err)
	}
	fmt.Println("✅ Build completed successfully!")
	return nil
}

// registerTargetBuildCommands adds one `build-<id>` command per
// declared target. Outside a repository, or with a broken config, only
// the static commands exist.
func registerTargetBuildCommands() {
	cfg, _, err := loadRelease()
	if err != nil {
		return
	}

	for _, id := range cfg.TargetIDs() {
		target, _ := cfg.Target(id)

		buildTargetCmd := &cobra.Command{
			Use:   pipeline.BuildTaskName(id),
			Short: fmt.Sprintf("Build the %s binary (%s, %s)", id, target.Triple, target.Backend),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, root, err := loadRelease()
				if err != nil {
					return err
				}
				return runTargetBuilds(cmd.Context(), cfg, root, []string{id})
			},
		}
		buildOpts.register(buildTargetCmd)
		rootCmd.AddCommand(buildTargetCmd)
	}
}
