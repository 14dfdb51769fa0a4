package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dosanma1/crossdeck/internal/container"
	"github.com/dosanma1/crossdeck/internal/release"
	"github.com/dosanma1/crossdeck/internal/toolchain"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the environment can run a release",
	Long: `Check the release environment up front: the configuration loads, the
host toolchain is available for native targets, and a container
runtime responds when a containerized target is declared.

These are exactly the faults that would otherwise surface mid-release.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	failures := 0

	fmt.Println("🔍 Checking release environment...")
	fmt.Println()

	cfg, root, err := loadRelease()
	if err != nil {
		fmt.Printf("❌ Configuration: %v\n", err)
		return fmt.Errorf("doctor found a fatal problem")
	}
	fmt.Printf("✅ Configuration: %s (%d targets)\n", filepath.Join(root, release.ConfigFileName), len(cfg.Targets))

	if cfg.HasBackend(release.BackendNative) {
		cargo, err := toolchain.NewCargo(root, false)
		if err != nil {
			fmt.Printf("❌ Cargo: %v\n", err)
			failures++
		} else if version, err := cargo.Version(ctx); err != nil {
			fmt.Printf("❌ Cargo: found at %s but not responding: %v\n", cargo.Path(), err)
			failures++
		} else {
			fmt.Printf("✅ Cargo: %s\n", version)
		}
	}

	if cfg.HasBackend(release.BackendContainerized) {
		resolver := release.NewResolver(cfg)
		runtime, err := container.Detect(resolver.Runtime(""), false)
		if err != nil {
			fmt.Printf("❌ Container runtime: %v\n", err)
			failures++
		} else if version, err := runtime.Version(ctx); err != nil {
			fmt.Printf("❌ Container runtime: %s found but not responding: %v\n", runtime.Name(), err)
			failures++
		} else {
			fmt.Printf("✅ Container runtime: %s\n", version)
		}
	}

	if _, err := os.Stat(filepath.Join(root, cfg.Manifest)); err != nil {
		fmt.Printf("❌ Manifest: %s not found\n", cfg.Manifest)
		failures++
	} else {
		fmt.Printf("✅ Manifest: %s\n", cfg.Manifest)
	}

	if info, err := os.Stat(filepath.Join(root, cfg.Assets)); err != nil || !info.IsDir() {
		fmt.Printf("❌ Assets: %s not found or not a directory\n", cfg.Assets)
		failures++
	} else {
		fmt.Printf("✅ Assets: %s\n", cfg.Assets)
	}

	fmt.Println()
	if failures > 0 {
		return fmt.Errorf("doctor found %d problem(s)", failures)
	}
	fmt.Println("✅ Environment ready for release")
	return nil
}
