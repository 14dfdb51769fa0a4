package release

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `version: 1
package: com.dosanma1.decklink.sdPlugin
binary: decklink
manifest: manifest.json
assets: assets
targets:
  - id: linux-x86_64
    backend: native
    triple: x86_64-unknown-linux-gnu
    artifact: decklink-linux
  - id: macos-aarch64
    backend: containerized
    triple: aarch64-apple-darwin
    image: ghcr.io/example/osxcross:latest
    artifact: decklink-macos
  - id: windows-x86_64
    backend: native
    triple: x86_64-pc-windows-gnu
    artifact: decklink-windows
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, sampleConfig)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Build.Dir != "build" {
		t.Errorf("Build.Dir = %q, want build", cfg.Build.Dir)
	}
	if cfg.Staging.Dir != filepath.Join("dist", "stage") {
		t.Errorf("Staging.Dir = %q, want dist/stage", cfg.Staging.Dir)
	}
	if cfg.Dist.Dir != "dist" {
		t.Errorf("Dist.Dir = %q, want dist", cfg.Dist.Dir)
	}
	if cfg.Dist.Format != "zip" {
		t.Errorf("Dist.Format = %q, want zip", cfg.Dist.Format)
	}
	if cfg.Container.PullPolicy != "ifNotPresent" {
		t.Errorf("PullPolicy = %q, want ifNotPresent", cfg.Container.PullPolicy)
	}
	if cfg.Container.PullRetries != 2 {
		t.Errorf("PullRetries = %d, want 2", cfg.Container.PullRetries)
	}
	if len(cfg.Targets) != 3 {
		t.Fatalf("len(Targets) = %d, want 3", len(cfg.Targets))
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("LoadConfig on empty dir should fail")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "version: [not a version\n")
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("LoadConfig on malformed yaml should fail")
	}
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, sampleConfig)
	nested := filepath.Join(root, "src", "dispatcher")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindRoot(nested)
	if err != nil {
		t.Fatalf("FindRoot: %v", err)
	}
	if got != root {
		t.Errorf("FindRoot = %q, want %q", got, root)
	}
}

func TestFindRootNotFound(t *testing.T) {
	if _, err := FindRoot(t.TempDir()); err == nil {
		t.Fatal("FindRoot outside any repository should fail")
	}
}

func TestTargetLookup(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, sampleConfig)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := cfg.Target("macos-aarch64"); !ok {
		t.Error("Target(macos-aarch64) not found")
	}
	if _, ok := cfg.Target("freebsd"); ok {
		t.Error("Target(freebsd) should not exist")
	}
	want := []string{"linux-x86_64", "macos-aarch64", "windows-x86_64"}
	got := cfg.TargetIDs()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("TargetIDs = %v, want %v", got, want)
		}
	}
	if !cfg.HasBackend(BackendContainerized) {
		t.Error("HasBackend(containerized) = false, want true")
	}
}

func TestTargetPaths(t *testing.T) {
	tests := []struct {
		name       string
		target     Target
		wantStaged string
		wantOutput string
	}{
		{
			name: "linux native",
			target: Target{
				ID:       "linux-x86_64",
				Backend:  BackendNative,
				Triple:   "x86_64-unknown-linux-gnu",
				Artifact: "decklink-linux",
			},
			wantStaged: "decklink-linux",
			wantOutput: filepath.Join("repo", "build", "linux-x86_64", "x86_64-unknown-linux-gnu", "release", "decklink"),
		},
		{
			name: "windows gets exe",
			target: Target{
				ID:       "windows-x86_64",
				Backend:  BackendNative,
				Triple:   "x86_64-pc-windows-gnu",
				Artifact: "decklink-windows",
			},
			wantStaged: "decklink-windows.exe",
			wantOutput: filepath.Join("repo", "build", "windows-x86_64", "x86_64-pc-windows-gnu", "release", "decklink.exe"),
		},
		{
			name: "explicit output override resolves under the root",
			target: Target{
				ID:       "macos-aarch64",
				Backend:  BackendContainerized,
				Triple:   "aarch64-apple-darwin",
				Artifact: "decklink-macos",
				Output:   "out/custom/decklink",
			},
			wantStaged: "decklink-macos",
			wantOutput: filepath.Join("repo", "out", "custom", "decklink"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.StagedName(); got != tt.wantStaged {
				t.Errorf("StagedName = %q, want %q", got, tt.wantStaged)
			}
			if got := tt.target.OutputPath("repo", filepath.Join("repo", "build"), "decklink"); got != tt.wantOutput {
				t.Errorf("OutputPath = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

func TestArchiveName(t *testing.T) {
	cfg := &Config{Package: "com.dosanma1.decklink.sdPlugin"}
	cfg.applyDefaults()

	if got := cfg.ArchiveName(); got != "com.dosanma1.decklink.sdPlugin.zip" {
		t.Errorf("ArchiveName = %q", got)
	}

	cfg.Dist.Format = "tar.gz"
	if got := cfg.ArchiveName(); got != "com.dosanma1.decklink.sdPlugin.tar.gz" {
		t.Errorf("ArchiveName = %q", got)
	}

	cfg.Dist.Archive = "bundle.zip"
	if got := cfg.ArchiveName(); got != "bundle.zip" {
		t.Errorf("explicit ArchiveName = %q", got)
	}
}
