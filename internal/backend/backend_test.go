package backend

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dosanma1/crossdeck/internal/container"
	"github.com/dosanma1/crossdeck/internal/errdefs"
	"github.com/dosanma1/crossdeck/internal/release"
)

type fakeCargo struct {
	output string
	err    error

	triple    string
	targetDir string
	extraArgs []string
}

func (f *fakeCargo) Build(ctx context.Context, triple, targetDir string, extraArgs []string) (string, error) {
	f.triple = triple
	f.targetDir = targetDir
	f.extraArgs = extraArgs
	return f.output, f.err
}

type fakeRuntime struct {
	ensureErr error
	runOutput string
	runErr    error

	ensuredImage string
	policy       string
	retries      int
	spec         container.RunSpec
	ran          bool
}

func (f *fakeRuntime) EnsureImage(ctx context.Context, task, image, policy string, retries int) error {
	f.ensuredImage = image
	f.policy = policy
	f.retries = retries
	return f.ensureErr
}

func (f *fakeRuntime) Run(ctx context.Context, spec container.RunSpec) (string, error) {
	f.spec = spec
	f.ran = true
	return f.runOutput, f.runErr
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(release.BackendNative, NewNative(&fakeCargo{})); err != nil {
		t.Fatalf("Register(native) error = %v", err)
	}
	if err := reg.Register(release.BackendNative, NewNative(&fakeCargo{})); err == nil {
		t.Error("Register() with duplicate kind should fail")
	}
	if _, err := reg.Get(release.BackendContainerized); err == nil {
		t.Error("Get() for unregistered kind should fail")
	}

	if err := reg.Register(release.BackendContainerized, NewContainerized(&fakeRuntime{}, container.PullIfNotPresent, 0)); err != nil {
		t.Fatalf("Register(containerized) error = %v", err)
	}
	got, err := reg.Get(release.BackendNative)
	if err != nil {
		t.Fatalf("Get(native) error = %v", err)
	}
	if got.Name() != "native" {
		t.Errorf("Get(native).Name() = %q, want %q", got.Name(), "native")
	}

	want := []string{"containerized", "native"}
	if list := reg.List(); !reflect.DeepEqual(list, want) {
		t.Errorf("List() = %v, want %v", list, want)
	}
}

func TestNativeBuild(t *testing.T) {
	cargo := &fakeCargo{output: "   Compiling decklink v0.1.0\n    Finished release"}
	native := NewNative(cargo)

	req := &Request{
		TaskName:  "build-linux-x86_64",
		Target:    release.Target{ID: "linux-x86_64", Backend: release.BackendNative, Triple: "x86_64-unknown-linux-gnu", Artifact: "decklink-linux-x86_64"},
		RepoRoot:  "/home/dev/plugin",
		BuildRoot: "/home/dev/plugin/build",
		ExtraArgs: []string{"--locked"},
	}

	result, err := native.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Output != cargo.output {
		t.Errorf("Build() output = %q, want %q", result.Output, cargo.output)
	}
	if cargo.triple != "x86_64-unknown-linux-gnu" {
		t.Errorf("cargo triple = %q, want %q", cargo.triple, "x86_64-unknown-linux-gnu")
	}
	if cargo.targetDir != "/home/dev/plugin/build/linux-x86_64" {
		t.Errorf("cargo target dir = %q, want per-target directory", cargo.targetDir)
	}
	if !reflect.DeepEqual(cargo.extraArgs, []string{"--locked"}) {
		t.Errorf("cargo extra args = %v, want [--locked]", cargo.extraArgs)
	}
}

func TestNativeBuildFailure(t *testing.T) {
	cargo := &fakeCargo{
		output: "error[E0432]: unresolved import `streamdeck::Client`",
		err:    errors.New("exit status 101"),
	}
	native := NewNative(cargo)

	req := &Request{
		TaskName: "build-linux-x86_64",
		Target:   release.Target{ID: "linux-x86_64", Triple: "x86_64-unknown-linux-gnu"},
	}

	_, err := native.Build(context.Background(), req)
	if err == nil {
		t.Fatal("Build() should fail when cargo fails")
	}
	if kind := errdefs.KindOf(err); kind != errdefs.KindToolchain {
		t.Errorf("KindOf() = %q, want %q", kind, errdefs.KindToolchain)
	}
	var relErr *errdefs.Error
	if !errors.As(err, &relErr) {
		t.Fatalf("Build() error type = %T, want *errdefs.Error", err)
	}
	if relErr.Task != "build-linux-x86_64" {
		t.Errorf("Task = %q, want %q", relErr.Task, "build-linux-x86_64")
	}
	if relErr.Diagnostics == "" {
		t.Error("Diagnostics should carry the build output")
	}
}

func TestContainerizedBuild(t *testing.T) {
	runtime := &fakeRuntime{runOutput: "    Finished release"}
	backend := NewContainerized(runtime, container.PullAlways, 3)

	req := &Request{
		TaskName:  "build-macos-aarch64",
		Target:    release.Target{ID: "macos-aarch64", Backend: release.BackendContainerized, Triple: "aarch64-apple-darwin", Image: "ghcr.io/cross-rs/aarch64-apple-darwin:main", Artifact: "decklink-macos-aarch64"},
		RepoRoot:  "/home/dev/plugin",
		BuildRoot: "/home/dev/plugin/build",
	}

	result, err := backend.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Output != runtime.runOutput {
		t.Errorf("Build() output = %q, want %q", result.Output, runtime.runOutput)
	}

	if runtime.ensuredImage != req.Target.Image {
		t.Errorf("EnsureImage image = %q, want %q", runtime.ensuredImage, req.Target.Image)
	}
	if runtime.policy != container.PullAlways || runtime.retries != 3 {
		t.Errorf("EnsureImage policy/retries = %q/%d, want %q/3", runtime.policy, runtime.retries, container.PullAlways)
	}

	spec := runtime.spec
	if spec.Image != req.Target.Image {
		t.Errorf("spec image = %q, want %q", spec.Image, req.Target.Image)
	}
	if spec.Mount.Source != "/home/dev/plugin" || spec.Mount.Target != workspaceMount {
		t.Errorf("spec mount = %+v, want repo root at %s", spec.Mount, workspaceMount)
	}
	if spec.Workdir != workspaceMount {
		t.Errorf("spec workdir = %q, want %q", spec.Workdir, workspaceMount)
	}
	if got := spec.Env["CARGO_TARGET_DIR"]; got != "/workspace/build/macos-aarch64" {
		t.Errorf("CARGO_TARGET_DIR = %q, want %q", got, "/workspace/build/macos-aarch64")
	}
	wantArgv := []string{"cargo", "build", "--release", "--target", "aarch64-apple-darwin"}
	if !reflect.DeepEqual(spec.Argv, wantArgv) {
		t.Errorf("spec argv = %v, want %v", spec.Argv, wantArgv)
	}
}

func TestContainerizedBuildPullFailure(t *testing.T) {
	pullErr := errdefs.New(errdefs.KindEnvironment, "build-macos-aarch64", "failed to pull image")
	runtime := &fakeRuntime{ensureErr: pullErr}
	backend := NewContainerized(runtime, container.PullIfNotPresent, 0)

	req := &Request{
		TaskName:  "build-macos-aarch64",
		Target:    release.Target{ID: "macos-aarch64", Backend: release.BackendContainerized, Triple: "aarch64-apple-darwin", Image: "ghcr.io/cross-rs/aarch64-apple-darwin:main"},
		RepoRoot:  "/home/dev/plugin",
		BuildRoot: "/home/dev/plugin/build",
	}

	_, err := backend.Build(context.Background(), req)
	if !errors.Is(err, pullErr) {
		t.Fatalf("Build() error = %v, want the pull error", err)
	}
	if runtime.ran {
		t.Error("Run() should not start when the image is unavailable")
	}
}

func TestContainerizedBuildRunFailure(t *testing.T) {
	runtime := &fakeRuntime{
		runOutput: "Cannot connect to the Docker daemon at unix:///var/run/docker.sock",
		runErr:    errors.New("exit status 125"),
	}
	backend := NewContainerized(runtime, container.PullIfNotPresent, 0)

	req := &Request{
		TaskName:  "build-macos-aarch64",
		Target:    release.Target{ID: "macos-aarch64", Triple: "aarch64-apple-darwin", Image: "ghcr.io/cross-rs/aarch64-apple-darwin:main"},
		RepoRoot:  "/home/dev/plugin",
		BuildRoot: "/home/dev/plugin/build",
	}

	_, err := backend.Build(context.Background(), req)
	if err == nil {
		t.Fatal("Build() should fail when the container fails")
	}
	if kind := errdefs.KindOf(err); kind != errdefs.KindEnvironment {
		t.Errorf("KindOf() = %q, want %q", kind, errdefs.KindEnvironment)
	}
}

func TestContainerTargetDir(t *testing.T) {
	tests := []struct {
		name      string
		repoRoot  string
		targetDir string
		want      string
		wantErr   bool
	}{
		{
			name:      "build dir inside repo",
			repoRoot:  "/home/dev/plugin",
			targetDir: "/home/dev/plugin/build/macos-aarch64",
			want:      "/workspace/build/macos-aarch64",
		},
		{
			name:      "nested build dir",
			repoRoot:  "/home/dev/plugin",
			targetDir: "/home/dev/plugin/out/release/build/win",
			want:      "/workspace/out/release/build/win",
		},
		{
			name:      "build dir outside repo",
			repoRoot:  "/home/dev/plugin",
			targetDir: "/tmp/build/macos-aarch64",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := containerTargetDir(tt.repoRoot, tt.targetDir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("containerTargetDir() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("containerTargetDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
