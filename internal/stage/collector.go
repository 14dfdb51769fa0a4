// Package stage assembles the staging tree that the packager turns
// into the release archive.
package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dosanma1/crossdeck/internal/errdefs"
	"github.com/dosanma1/crossdeck/internal/release"
)

// TaskName identifies the collection step in task output and errors.
const TaskName = "collect"

// ConfirmFunc asks the operator a yes/no question.
type ConfirmFunc func(prompt string) (bool, error)

// Collector copies built binaries, the manifest and the asset tree
// into the staging package directory.
type Collector struct {
	repoRoot string
	cfg      *release.Config

	// ForceClean removes a leftover staging tree without asking.
	ForceClean bool

	// Confirm, when set, is consulted before a leftover staging tree
	// is removed.
	Confirm ConfirmFunc
}

// NewCollector creates a collector rooted at the repository.
func NewCollector(repoRoot string, cfg *release.Config) *Collector {
	return &Collector{repoRoot: repoRoot, cfg: cfg}
}

// StagingRoot returns the staging directory.
func (c *Collector) StagingRoot() string {
	return c.cfg.StagingRoot(c.repoRoot)
}

// PackageDir returns the package directory inside staging. Its base
// name becomes the archive's single top-level entry.
func (c *Collector) PackageDir() string {
	return filepath.Join(c.StagingRoot(), c.cfg.Package)
}

// Collect assembles the staging tree from the build outputs of every
// declared target. All builds must already have succeeded.
func (c *Collector) Collect(ctx context.Context) error {
	if err := c.preflight(); err != nil {
		return err
	}

	pkgDir := c.PackageDir()
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "cannot create staging directory")
	}

	buildRoot := c.cfg.BuildRoot(c.repoRoot)
	for _, target := range c.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "collection interrupted")
		}
		if err := c.stageBinary(target, buildRoot, pkgDir); err != nil {
			return err
		}
	}

	if err := c.stageManifest(pkgDir); err != nil {
		return err
	}
	return c.stageAssets(pkgDir)
}

// preflight enforces the clean-staging contract: entries left over
// from a previous run must never leak into a new archive.
func (c *Collector) preflight() error {
	pkgDir := c.PackageDir()

	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "cannot inspect staging directory")
	}
	if len(entries) == 0 {
		return nil
	}

	if !c.ForceClean {
		if c.Confirm == nil {
			return staleStagingError(pkgDir)
		}
		ok, err := c.Confirm(fmt.Sprintf("Staging directory %s is not empty. Remove it?", pkgDir))
		if err != nil {
			return errdefs.Wrap(errdefs.KindStagingState, TaskName, err, "confirmation failed")
		}
		if !ok {
			return staleStagingError(pkgDir)
		}
	}

	fmt.Printf("🗑️  Removing stale staging directory %s\n", pkgDir)
	if err := os.RemoveAll(pkgDir); err != nil {
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "failed to remove stale staging directory")
	}
	return nil
}

func staleStagingError(pkgDir string) *errdefs.Error {
	return errdefs.New(errdefs.KindStagingState, TaskName,
		fmt.Sprintf("staging directory %s already contains files from a previous run", pkgDir)).
		WithSuggestion("Pass --clean-staging (-f) to remove it, or delete it manually")
}

func (c *Collector) stageBinary(target release.Target, buildRoot, pkgDir string) error {
	src := target.OutputPath(c.repoRoot, buildRoot, c.cfg.Binary)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return errdefs.New(errdefs.KindArtifactMissing, TaskName,
				fmt.Sprintf("build output for target %q not found at %s", target.ID, src)).
				WithSuggestion(fmt.Sprintf("Run `crossdeck build-%s` before collecting", target.ID))
		}
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err,
			fmt.Sprintf("cannot read build output for target %q", target.ID))
	}

	dst := filepath.Join(pkgDir, target.StagedName())
	if err := copyFile(src, dst); err != nil {
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err,
			fmt.Sprintf("failed to stage binary for target %q", target.ID))
	}
	return nil
}

func (c *Collector) stageManifest(pkgDir string) error {
	src := filepath.Join(c.repoRoot, c.cfg.Manifest)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return errdefs.New(errdefs.KindEnvironment, TaskName,
				fmt.Sprintf("manifest %s not found", src)).
				WithSuggestion("Check the manifest path in " + release.ConfigFileName)
		}
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "cannot read manifest")
	}

	dst := filepath.Join(pkgDir, filepath.Base(c.cfg.Manifest))
	if err := copyFile(src, dst); err != nil {
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "failed to stage manifest")
	}
	return nil
}

func (c *Collector) stageAssets(pkgDir string) error {
	src := filepath.Join(c.repoRoot, c.cfg.Assets)
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errdefs.New(errdefs.KindEnvironment, TaskName,
				fmt.Sprintf("assets directory %s not found", src)).
				WithSuggestion("Check the assets path in " + release.ConfigFileName)
		}
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "cannot read assets directory")
	}
	if !info.IsDir() {
		return errdefs.New(errdefs.KindEnvironment, TaskName,
			fmt.Sprintf("assets path %s is not a directory", src))
	}

	dst := filepath.Join(pkgDir, filepath.Base(c.cfg.Assets))
	if err := copyTree(src, dst); err != nil {
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "failed to stage assets")
	}
	return nil
}
