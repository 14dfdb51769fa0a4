package backend

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dosanma1/crossdeck/internal/container"
	"github.com/dosanma1/crossdeck/internal/errdefs"
	"github.com/dosanma1/crossdeck/internal/toolchain"
)

// workspaceMount is where the repository is mounted inside build
// containers.
const workspaceMount = "/workspace"

// ImageRunner abstracts the container runtime used for builds.
type ImageRunner interface {
	EnsureImage(ctx context.Context, task, image, policy string, retries int) error
	Run(ctx context.Context, spec container.RunSpec) (string, error)
}

// Containerized builds targets inside a container image with the
// repository bind mounted read-write.
type Containerized struct {
	runtime     ImageRunner
	pullPolicy  string
	pullRetries int
}

// NewContainerized creates the container backend.
func NewContainerized(runtime ImageRunner, pullPolicy string, pullRetries int) *Containerized {
	return &Containerized{
		runtime:     runtime,
		pullPolicy:  pullPolicy,
		pullRetries: pullRetries,
	}
}

// Name returns the backend identifier.
func (c *Containerized) Name() string {
	return "containerized"
}

// Build compiles the target inside its image. The build artifact lands
// under the shared build directory on the host through the bind mount.
func (c *Containerized) Build(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if err := c.runtime.EnsureImage(ctx, req.TaskName, req.Target.Image, c.pullPolicy, c.pullRetries); err != nil {
		return nil, err
	}

	targetDir, err := containerTargetDir(req.RepoRoot, req.Target.TargetDir(req.BuildRoot))
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindEnvironment, req.TaskName, err, "cannot map build directory into the container")
	}

	spec := container.RunSpec{
		Image:   req.Target.Image,
		Mount:   container.Mount{Source: req.RepoRoot, Target: workspaceMount},
		Workdir: workspaceMount,
		Env: map[string]string{
			"CARGO_TARGET_DIR": targetDir,
		},
		Argv: append([]string{"cargo"}, toolchain.BuildArgs(req.Target.Triple, req.ExtraArgs)...),
	}

	output, err := c.runtime.Run(ctx, spec)
	if err != nil {
		return nil, toolchain.ClassifyContainer(req.TaskName, output, err)
	}

	return &Result{Output: output, Duration: time.Since(start)}, nil
}

// containerTargetDir translates a host target directory to its path
// under the workspace mount. The directory must live inside the
// repository or the container cannot reach it.
func containerTargetDir(repoRoot, targetDir string) (string, error) {
	rel, err := filepath.Rel(repoRoot, targetDir)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("build directory %s is outside the repository", targetDir)
	}
	return path.Join(workspaceMount, filepath.ToSlash(rel)), nil
}
