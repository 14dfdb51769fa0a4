// Package release defines the crossdeck.yaml configuration: the
// component being released, its build targets, and the layout of the
// build, staging, and dist directories. The config file doubles as the
// repository root marker.
package release

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the configuration file crossdeck looks for when
// walking up from the current directory.
const ConfigFileName = "crossdeck.yaml"

// BackendKind selects the execution environment that builds a target.
type BackendKind string

const (
	// BackendNative builds with the host toolchain.
	BackendNative BackendKind = "native"

	// BackendContainerized builds inside a cross-compilation image
	// with the repository mounted.
	BackendContainerized BackendKind = "containerized"
)

// Config is the parsed crossdeck.yaml.
type Config struct {
	Version   int               `yaml:"version"`
	Package   string            `yaml:"package"`
	Binary    string            `yaml:"binary"`
	Manifest  string            `yaml:"manifest"`
	Assets    string            `yaml:"assets"`
	Build     BuildSettings     `yaml:"build"`
	Staging   StagingSettings   `yaml:"staging"`
	Dist      DistSettings      `yaml:"dist"`
	Container ContainerSettings `yaml:"container"`
	Targets   []Target          `yaml:"targets"`
}

// BuildSettings controls how build tasks run.
type BuildSettings struct {
	// Dir is the root for per-target output directories, relative to
	// the repository root.
	Dir string `yaml:"dir"`

	// Args are extra arguments appended to every build invocation.
	Args []string `yaml:"args"`

	// Jobs bounds concurrent build tasks. Zero means one per CPU.
	Jobs int `yaml:"jobs"`
}

// StagingSettings controls where the package tree is assembled.
type StagingSettings struct {
	Dir string `yaml:"dir"`
}

// DistSettings controls the final archive.
type DistSettings struct {
	Dir     string `yaml:"dir"`
	Archive string `yaml:"archive"`
	Format  string `yaml:"format"`
}

// ContainerSettings controls the containerized backend.
type ContainerSettings struct {
	// Runtime is the container runtime binary (docker or podman).
	// Empty means auto-detect.
	Runtime string `yaml:"runtime"`

	// PullPolicy is one of always, never, ifNotPresent.
	PullPolicy string `yaml:"pullPolicy"`

	// PullRetries is the number of additional pull attempts after a
	// transient failure.
	PullRetries int `yaml:"pullRetries"`
}

// Target describes one build target.
type Target struct {
	ID      string      `yaml:"id"`
	Backend BackendKind `yaml:"backend"`
	Triple  string      `yaml:"triple"`

	// Image is the cross-compilation image. Required for
	// containerized targets, invalid for native ones.
	Image string `yaml:"image,omitempty"`

	// Artifact is the staged binary name, before the platform
	// extension is applied.
	Artifact string `yaml:"artifact"`

	// Output overrides the derived build output path (relative to the
	// repository root). Must match what the backend actually produces.
	Output string `yaml:"output,omitempty"`
}

// FindRoot walks upward from start looking for crossdeck.yaml and
// returns the directory containing it.
func FindRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent directory", ConfigFileName, start)
		}
		dir = parent
	}
}

// LoadConfig reads crossdeck.yaml from the repository root.
func LoadConfig(root string) (*Config, error) {
	return LoadConfigFrom(filepath.Join(root, ConfigFileName))
}

// LoadConfigFrom reads a config from an explicit path.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in the layout conventions that most projects
// never override.
func (c *Config) applyDefaults() {
	if c.Manifest == "" {
		c.Manifest = "manifest.json"
	}
	if c.Assets == "" {
		c.Assets = "assets"
	}
	if c.Build.Dir == "" {
		c.Build.Dir = "build"
	}
	if c.Staging.Dir == "" {
		c.Staging.Dir = filepath.Join("dist", "stage")
	}
	if c.Dist.Dir == "" {
		c.Dist.Dir = "dist"
	}
	if c.Dist.Format == "" {
		c.Dist.Format = "zip"
	}
	if c.Container.PullPolicy == "" {
		c.Container.PullPolicy = "ifNotPresent"
	}
	if c.Container.PullRetries == 0 {
		c.Container.PullRetries = 2
	}
}

// Target returns the target with the given identifier.
func (c *Config) Target(id string) (Target, bool) {
	for _, t := range c.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return Target{}, false
}

// TargetIDs returns the declared target identifiers in config order.
func (c *Config) TargetIDs() []string {
	out := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		out = append(out, t.ID)
	}
	return out
}

// HasBackend reports whether any target uses the given backend.
func (c *Config) HasBackend(kind BackendKind) bool {
	for _, t := range c.Targets {
		if t.Backend == kind {
			return true
		}
	}
	return false
}

// ArchiveName returns the final archive filename.
func (c *Config) ArchiveName() string {
	if c.Dist.Archive != "" {
		return c.Dist.Archive
	}
	ext := ".zip"
	if c.Dist.Format == "tar.gz" {
		ext = ".tar.gz"
	}
	return c.Package + ext
}

// ArchivePath returns the final archive path under the repository root.
func (c *Config) ArchivePath(root string) string {
	return filepath.Join(root, c.Dist.Dir, c.ArchiveName())
}

// StagingRoot returns the staging directory under the repository root.
// The package tree is assembled at <StagingRoot>/<Package>.
func (c *Config) StagingRoot(root string) string {
	return filepath.Join(root, c.Staging.Dir)
}

// BuildRoot returns the build output root under the repository root.
func (c *Config) BuildRoot(root string) string {
	return filepath.Join(root, c.Build.Dir)
}

// IsWindows reports whether the target's triple is a Windows platform.
func (t Target) IsWindows() bool {
	return strings.Contains(t.Triple, "windows")
}

// PlatformExt returns the executable extension the target's platform
// requires (".exe" on Windows, empty elsewhere).
func (t Target) PlatformExt() string {
	if t.IsWindows() {
		return ".exe"
	}
	return ""
}

// StagedName returns the name the target's binary takes in the staging
// tree: the artifact name plus the platform extension.
func (t Target) StagedName() string {
	return t.Artifact + t.PlatformExt()
}

// OutputPath returns the path where the backend leaves the built
// binary. An explicit output override is resolved against the
// repository root; otherwise each target builds into its own
// directory under buildDir so concurrent builds never collide.
func (t Target) OutputPath(root, buildDir, binary string) string {
	if t.Output != "" {
		return filepath.Join(root, filepath.FromSlash(t.Output))
	}
	return filepath.Join(buildDir, t.ID, t.Triple, "release", binary+t.PlatformExt())
}

// TargetDir returns the repository-relative per-target output
// directory handed to the toolchain.
func (t Target) TargetDir(buildDir string) string {
	return filepath.Join(buildDir, t.ID)
}
