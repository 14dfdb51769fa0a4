package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectClean bool

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Stage built binaries, manifest and assets",
	Long: `Copy each target's built binary into the staging package directory
under its final artifact name, together with the plugin manifest and
the static assets tree.

Every declared target must have been built first. A staging directory
left over from a previous run is refused unless confirmed or removed
with --clean-staging.

Examples:
  crossdeck collect       # Stage after building all targets
  crossdeck collect -f    # Remove stale staging without asking`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().BoolVarP(&collectClean, "clean-staging", "f", false, "Remove a stale staging tree without asking")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadRelease()
	if err != nil {
		return err
	}

	p := newStagingPipeline(root, cfg, collectClean)
	if err := p.RunCollect(cmd.Context()); err != nil {
		return reportFailure(err)
	}

	fmt.Printf("\n📁 Staging tree ready at %s\n", cfg.StagingRoot(root))
	return nil
}
