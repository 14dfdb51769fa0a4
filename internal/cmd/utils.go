package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dosanma1/crossdeck/internal/archive"
	"github.com/dosanma1/crossdeck/internal/backend"
	"github.com/dosanma1/crossdeck/internal/container"
	"github.com/dosanma1/crossdeck/internal/errdefs"
	"github.com/dosanma1/crossdeck/internal/graph"
	"github.com/dosanma1/crossdeck/internal/pipeline"
	"github.com/dosanma1/crossdeck/internal/release"
	"github.com/dosanma1/crossdeck/internal/stage"
	"github.com/dosanma1/crossdeck/internal/toolchain"
	"github.com/dosanma1/crossdeck/internal/ui"
)

// loadRelease locates the repository root from the working directory
// and loads its validated configuration.
func loadRelease() (*release.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	root, err := release.FindRoot(cwd)
	if err != nil {
		return nil, "", fmt.Errorf("not inside a crossdeck repository: %w", err)
	}

	cfg, err := release.LoadConfig(root)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load %s: %w", release.ConfigFileName, err)
	}
	if err := release.NewValidator().Validate(cfg); err != nil {
		return nil, "", fmt.Errorf("invalid %s: %w", release.ConfigFileName, err)
	}
	return cfg, root, nil
}

// buildOptions carry the flag values shared by the build-running
// commands.
type buildOptions struct {
	jobs       int
	runtime    string
	pullPolicy string
	verbose    bool
	cleanStage bool
}

func (o *buildOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.jobs, "jobs", "j", 0, "Maximum concurrent build tasks (default: one per CPU)")
	cmd.Flags().StringVar(&o.runtime, "runtime", "", "Container runtime binary (docker|podman)")
	cmd.Flags().StringVar(&o.pullPolicy, "pull-policy", "", "Image pull policy (always|never|ifNotPresent)")
	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "Stream build output")
}

// newPipeline wires backends, collector and packager for the loaded
// repository. The container runtime is only resolved when a declared
// target needs it.
func newPipeline(root string, cfg *release.Config, opts *buildOptions) (*pipeline.Pipeline, error) {
	resolver := release.NewResolver(cfg)

	registry := backend.NewRegistry()
	if cfg.HasBackend(release.BackendNative) {
		cargo, err := toolchain.NewCargo(root, opts.verbose)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(release.BackendNative, backend.NewNative(cargo)); err != nil {
			return nil, err
		}
	}
	if cfg.HasBackend(release.BackendContainerized) {
		runtime, err := container.Detect(resolver.Runtime(opts.runtime), opts.verbose)
		if err != nil {
			return nil, err
		}
		containerized := backend.NewContainerized(runtime, resolver.PullPolicy(opts.pullPolicy), resolver.PullRetries())
		if err := registry.Register(release.BackendContainerized, containerized); err != nil {
			return nil, err
		}
	}

	collector := stage.NewCollector(root, cfg)
	collector.ForceClean = opts.cleanStage
	if !opts.cleanStage {
		collector.Confirm = func(prompt string) (bool, error) {
			return ui.AskConfirm(prompt, false)
		}
	}

	packager := archive.NewPackager(cfg.StagingRoot(root), cfg.Package)

	p := pipeline.New(root, cfg, registry, collector, packager)
	p.Jobs = resolver.Jobs(opts.jobs)
	p.Notify = newTaskPrinter().print
	return p, nil
}

// newStagingPipeline wires a pipeline for the collect and package
// commands. No backend is registered: staging and packaging must work
// on hosts without any toolchain installed.
func newStagingPipeline(root string, cfg *release.Config, forceClean bool) *pipeline.Pipeline {
	collector := stage.NewCollector(root, cfg)
	collector.ForceClean = forceClean
	if !forceClean {
		collector.Confirm = func(prompt string) (bool, error) {
			return ui.AskConfirm(prompt, false)
		}
	}

	packager := archive.NewPackager(cfg.StagingRoot(root), cfg.Package)

	p := pipeline.New(root, cfg, backend.NewRegistry(), collector, packager)
	p.Notify = newTaskPrinter().print
	return p
}

// taskPrinter prints one line per task transition. Tasks finish on
// worker goroutines, so printing is serialized.
type taskPrinter struct {
	mu sync.Mutex
}

func newTaskPrinter() *taskPrinter {
	return &taskPrinter{}
}

func (p *taskPrinter) print(task string, status graph.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Println(statusLine(task, status))
}

func statusLine(task string, status graph.Status) string {
	switch status {
	case graph.StatusRunning:
		return "🚀 " + task
	case graph.StatusSucceeded:
		return "✅ " + task
	case graph.StatusFailed:
		return "❌ " + task
	case graph.StatusSkipped:
		return "⏭️  " + task + " (dependency failed)"
	}
	return task
}

// taskProgress drives a task-count bar, clearing it around per-task
// lines so both stay readable. Every task ends terminal, so the bar
// always completes and clears itself.
type taskProgress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newTaskProgress(total int) *taskProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("🚀 release"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return &taskProgress{bar: bar}
}

func (p *taskProgress) print(task string, status graph.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if status == graph.StatusRunning {
		p.bar.Describe("🚀 " + task)
		return
	}

	p.bar.Clear()
	fmt.Println(statusLine(task, status))
	p.bar.Add(1)
}

// reportFailure prints the captured diagnostics and suggestion for a
// failed task, then returns the error for the exit path.
func reportFailure(err error) error {
	printFailure(err)
	return err
}

func printFailure(err error) {
	if err == nil {
		return
	}

	var relErr *errdefs.Error
	if errors.As(err, &relErr) {
		if relErr.Diagnostics != "" {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, strings.TrimRight(relErr.Diagnostics, "\n"))
		}
		if relErr.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "\n💡 %s\n", relErr.Suggestion)
		}
	}
}
