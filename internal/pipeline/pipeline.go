// Package pipeline assembles the release task graph and runs it.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dosanma1/crossdeck/internal/archive"
	"github.com/dosanma1/crossdeck/internal/backend"
	"github.com/dosanma1/crossdeck/internal/errdefs"
	"github.com/dosanma1/crossdeck/internal/graph"
	"github.com/dosanma1/crossdeck/internal/release"
	"github.com/dosanma1/crossdeck/internal/stage"
)

// BuildTaskName returns the task name for one target's build.
func BuildTaskName(targetID string) string {
	return "build-" + targetID
}

// Pipeline wires target builds, artifact collection and packaging into
// one task graph.
type Pipeline struct {
	repoRoot  string
	cfg       *release.Config
	backends  *backend.Registry
	collector *stage.Collector
	packager  *archive.Packager

	// Jobs caps concurrently running tasks. Zero means one worker
	// per CPU.
	Jobs int

	// ExtraArgs are appended to every build invocation after the
	// configured build args.
	ExtraArgs []string

	// Notify observes task status transitions.
	Notify func(task string, status graph.Status)
}

// New creates a pipeline over a loaded configuration.
func New(repoRoot string, cfg *release.Config, backends *backend.Registry, collector *stage.Collector, packager *archive.Packager) *Pipeline {
	return &Pipeline{
		repoRoot:  repoRoot,
		cfg:       cfg,
		backends:  backends,
		collector: collector,
		packager:  packager,
	}
}

// RunRelease builds every declared target, then collects and packages.
func (p *Pipeline) RunRelease(ctx context.Context) error {
	g, err := p.releaseGraph(p.cfg.TargetIDs(), true)
	if err != nil {
		return err
	}
	return p.run(ctx, g)
}

// RunBuilds builds the given targets, without collecting or packaging.
func (p *Pipeline) RunBuilds(ctx context.Context, targetIDs []string) error {
	g, err := p.releaseGraph(targetIDs, false)
	if err != nil {
		return err
	}
	return p.run(ctx, g)
}

// RunCollect stages the artifacts produced by earlier builds.
func (p *Pipeline) RunCollect(ctx context.Context) error {
	g := graph.New()
	if err := g.Add(graph.Task{Name: stage.TaskName, Run: p.collector.Collect}); err != nil {
		return err
	}
	return p.run(ctx, g)
}

// RunPackage archives the current staging tree.
func (p *Pipeline) RunPackage(ctx context.Context) error {
	g := graph.New()
	if err := g.Add(graph.Task{Name: archive.TaskName, Run: p.packageTask}); err != nil {
		return err
	}
	return p.run(ctx, g)
}

// releaseGraph adds one build task per target, plus the collect and
// package barrier tasks when bundle is set.
func (p *Pipeline) releaseGraph(targetIDs []string, bundle bool) (*graph.Graph, error) {
	g := graph.New()

	buildNames := make([]string, 0, len(targetIDs))
	for _, id := range targetIDs {
		target, ok := p.cfg.Target(id)
		if !ok {
			return nil, fmt.Errorf("unknown target %q (declared targets: %v)", id, p.cfg.TargetIDs())
		}
		b, err := p.backends.Get(target.Backend)
		if err != nil {
			return nil, err
		}

		name := BuildTaskName(id)
		buildNames = append(buildNames, name)
		if err := g.Add(p.buildTask(name, target, b)); err != nil {
			return nil, err
		}
	}

	if !bundle {
		return g, nil
	}

	// Collection must never observe a half-built set of artifacts,
	// so it depends on every build.
	if err := g.Add(graph.Task{Name: stage.TaskName, Needs: buildNames, Run: p.collector.Collect}); err != nil {
		return nil, err
	}
	if err := g.Add(graph.Task{Name: archive.TaskName, Needs: []string{stage.TaskName}, Run: p.packageTask}); err != nil {
		return nil, err
	}
	return g, nil
}

func (p *Pipeline) buildTask(name string, target release.Target, b backend.Backend) graph.Task {
	return graph.Task{
		Name: name,
		Run: func(ctx context.Context) error {
			args := append(append([]string{}, p.cfg.Build.Args...), p.ExtraArgs...)
			req := &backend.Request{
				TaskName:  name,
				Target:    target,
				RepoRoot:  p.repoRoot,
				BuildRoot: p.cfg.BuildRoot(p.repoRoot),
				ExtraArgs: args,
			}
			_, err := b.Build(ctx, req)
			return err
		},
	}
}

func (p *Pipeline) packageTask(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errdefs.Wrap(errdefs.KindPackaging, archive.TaskName, err, "packaging interrupted")
	}

	format, err := archive.ParseFormat(p.cfg.Dist.Format)
	if err != nil {
		return errdefs.Wrap(errdefs.KindPackaging, archive.TaskName, err, "invalid archive format")
	}
	return p.packager.Package(p.cfg.ArchivePath(p.repoRoot), format)
}

func (p *Pipeline) run(ctx context.Context, g *graph.Graph) error {
	runner := &graph.Runner{Jobs: p.Jobs, Notify: p.Notify}
	summary, err := runner.Run(ctx, g)
	if err != nil {
		return err
	}
	if summary.OK() {
		return nil
	}
	return summary.FirstError()
}
