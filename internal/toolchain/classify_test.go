package toolchain

import (
	"errors"
	"testing"

	"github.com/dosanma1/crossdeck/internal/errdefs"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name   string
		triple string
		extra  []string
		want   []string
	}{
		{
			name:   "plain",
			triple: "x86_64-unknown-linux-gnu",
			want:   []string{"build", "--release", "--target", "x86_64-unknown-linux-gnu"},
		},
		{
			name:   "extra args appended",
			triple: "x86_64-pc-windows-gnu",
			extra:  []string{"--locked", "--features", "hidraw"},
			want:   []string{"build", "--release", "--target", "x86_64-pc-windows-gnu", "--locked", "--features", "hidraw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildArgs(tt.triple, tt.extra)
			if len(got) != len(tt.want) {
				t.Fatalf("BuildArgs = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("BuildArgs = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestClassifyNative(t *testing.T) {
	cause := errors.New("exit status 101")

	tests := []struct {
		name           string
		output         string
		wantKind       errdefs.Kind
		wantSuggestion bool
	}{
		{
			name:     "compile error",
			output:   "error[E0308]: mismatched types\n --> src/dispatcher.rs:42:9",
			wantKind: errdefs.KindToolchain,
		},
		{
			name:           "missing target stdlib",
			output:         "error: the 'x86_64-pc-windows-gnu' target may not be installed",
			wantKind:       errdefs.KindToolchain,
			wantSuggestion: true,
		},
		{
			name:           "missing linker",
			output:         "error: linker `x86_64-w64-mingw32-gcc` not found",
			wantKind:       errdefs.KindToolchain,
			wantSuggestion: true,
		},
		{
			name:     "unrecognized output",
			output:   "something unusual happened",
			wantKind: errdefs.KindToolchain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNative("build-windows-x86_64", tt.output, cause)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.Task != "build-windows-x86_64" {
				t.Errorf("Task = %q", got.Task)
			}
			if got.Diagnostics != tt.output {
				t.Error("diagnostics were not attached")
			}
			if tt.wantSuggestion && got.Suggestion == "" {
				t.Error("expected a suggestion")
			}
			if !errors.Is(got, cause) {
				t.Error("cause not wrapped")
			}
		})
	}
}

func TestClassifyContainer(t *testing.T) {
	tests := []struct {
		name          string
		output        string
		wantKind      errdefs.Kind
		wantRetryable bool
	}{
		{
			name:     "daemon down",
			output:   "Cannot connect to the Docker daemon at unix:///var/run/docker.sock. Is the docker daemon running?",
			wantKind: errdefs.KindEnvironment,
		},
		{
			name:     "image missing",
			output:   "Unable to find image 'ghcr.io/example/osxcross:latest' locally\ndocker: Error response from daemon: manifest unknown.",
			wantKind: errdefs.KindEnvironment,
		},
		{
			name:          "network blip",
			output:        "Error response from daemon: Get \"https://ghcr.io/v2/\": net/http: TLS handshake timeout",
			wantKind:      errdefs.KindEnvironment,
			wantRetryable: true,
		},
		{
			name:     "compiler error inside container",
			output:   "error[E0425]: cannot find value `devices` in this scope",
			wantKind: errdefs.KindToolchain,
		},
		{
			name:     "plain failure defaults to toolchain",
			output:   "warning: unused import",
			wantKind: errdefs.KindToolchain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyContainer("build-macos-aarch64", tt.output, errors.New("exit status 1"))
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestClassifyPullIsRetryableEnvironment(t *testing.T) {
	err := ClassifyPull("build-macos-aarch64", "ghcr.io/example/osxcross:latest", "some registry hiccup", errors.New("exit status 1"))
	if err.Kind != errdefs.KindEnvironment {
		t.Errorf("Kind = %q, want environment", err.Kind)
	}
	if !errdefs.IsRetryable(err) {
		t.Error("pull failures should be retryable by default")
	}
}

func TestClassifyPullNonRetryablePattern(t *testing.T) {
	out := "Error response from daemon: pull access denied for ghcr.io/example/osxcross"
	err := ClassifyPull("build-macos-aarch64", "ghcr.io/example/osxcross:latest", out, errors.New("exit status 1"))
	if err.Kind != errdefs.KindEnvironment {
		t.Errorf("Kind = %q, want environment", err.Kind)
	}
	if errdefs.IsRetryable(err) {
		t.Error("access-denied pulls are not transient and must not retry")
	}
	if err.Suggestion == "" {
		t.Error("expected a suggestion for a bad image reference")
	}
}
