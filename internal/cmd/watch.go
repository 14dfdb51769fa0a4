package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dosanma1/crossdeck/internal/release"
	"github.com/dosanma1/crossdeck/internal/watch"
)

var watchOpts = &buildOptions{}

var watchCmd = &cobra.Command{
	Use:   "watch [target...]",
	Short: "Rebuild targets whenever sources change",
	Long: `Watch the repository and rerun the selected build tasks whenever a
source file, the cargo manifests, the plugin manifest or an asset
changes. Build failures are reported and watching continues.

Without arguments only the native targets are rebuilt; containerized
builds are too slow for an edit loop.

Examples:
  # Rebuild all native targets on change
  crossdeck watch

  # Rebuild one specific target on change
  crossdeck watch macos-aarch64`,
	RunE: runWatch,
}

func init() {
	watchOpts.register(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadRelease()
	if err != nil {
		return err
	}

	ids := args
	if len(ids) == 0 {
		for _, t := range cfg.Targets {
			if t.Backend == release.BackendNative {
				ids = append(ids, t.ID)
			}
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("no native targets to watch; pass target ids explicitly")
	}
	for _, id := range ids {
		if _, ok := cfg.Target(id); !ok {
			return fmt.Errorf("unknown target %q (declared: %s)", id, strings.Join(cfg.TargetIDs(), ", "))
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	watcher, err := watch.NewWatcher(watch.DefaultOptions(root, cfg))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	fmt.Printf("👀 Watching %s (Ctrl-C to stop)\n", root)
	rebuildTargets(ctx, ids)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\n👋 Stopped watching")
			return nil
		case change := <-watcher.Changes():
			rel, relErr := filepath.Rel(root, change.Path)
			if relErr != nil {
				rel = change.Path
			}
			fmt.Printf("\n🔁 %s changed\n", rel)
			rebuildTargets(ctx, ids)
		case err := <-watcher.Errors():
			fmt.Fprintf(os.Stderr, "⚠️  Watch error: %v\n", err)
		}
	}
}

// rebuildTargets reloads the configuration and reruns the selected
// build tasks. Failures are reported and the watch loop keeps going.
func rebuildTargets(ctx context.Context, ids []string) {
	cfg, root, err := loadRelease()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return
	}

	p, err := newPipeline(root, cfg, watchOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return
	}

	if err := p.RunBuilds(ctx, ids); err != nil {
		printFailure(err)
		return
	}
	fmt.Println("✅ Build completed successfully!")
}
