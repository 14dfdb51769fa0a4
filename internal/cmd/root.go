// Package cmd implements the crossdeck command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crossdeck",
	Short: "crossdeck - multi-target release builds for cargo plugins",
	Long: `crossdeck builds a cargo plugin for every declared target platform,
stages the binaries together with the plugin manifest and assets, and
packages everything into one distributable archive.

Native targets build with the host toolchain; targets the host cannot
compile build inside cross-compilation container images.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Per-target build commands exist only when a
// release configuration is reachable from the working directory.
func Execute() error {
	registerTargetBuildCommands()
	return rootCmd.Execute()
}
