// Package toolchain runs the host cargo toolchain and classifies its
// diagnostics.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Cargo handles cargo command execution against one repository.
type Cargo struct {
	repoRoot  string
	cargoPath string
	verbose   bool
}

// NewCargo creates a cargo executor rooted at the repository.
func NewCargo(repoRoot string, verbose bool) (*Cargo, error) {
	cargoPath, err := findCargo()
	if err != nil {
		return nil, fmt.Errorf("cargo not found: %w", err)
	}

	return &Cargo{
		repoRoot:  repoRoot,
		cargoPath: cargoPath,
		verbose:   verbose,
	}, nil
}

// Path returns the resolved cargo binary path.
func (c *Cargo) Path() string {
	return c.cargoPath
}

// BuildArgs assembles the cargo invocation for one target triple. The
// same argument list is used inside cross-compilation containers, so it
// lives here rather than on the executor.
func BuildArgs(triple string, extra []string) []string {
	args := []string{"build", "--release", "--target", triple}
	return append(args, extra...)
}

// Build compiles the repository for the given triple, directing all
// build output into targetDir (repository-relative). Returns the
// combined toolchain output for diagnostics.
func (c *Cargo) Build(ctx context.Context, triple, targetDir string, extra []string) (string, error) {
	args := BuildArgs(triple, extra)

	cmd := exec.CommandContext(ctx, c.cargoPath, args...)
	cmd.Dir = c.repoRoot
	cmd.Env = append(os.Environ(), "CARGO_TARGET_DIR="+targetDir)

	var buf bytes.Buffer
	if c.verbose {
		cmd.Stdout = io.MultiWriter(os.Stdout, &buf)
		cmd.Stderr = io.MultiWriter(os.Stderr, &buf)
	} else {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	}

	err := cmd.Run()
	return buf.String(), err
}

// Version returns the cargo version string.
func (c *Cargo) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, c.cargoPath, "--version")

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// findCargo locates the cargo binary.
func findCargo() (string, error) {
	if path, err := exec.LookPath("cargo"); err == nil {
		return path, nil
	}

	// Rustup installs outside PATH in some shells.
	home, err := os.UserHomeDir()
	if err == nil {
		rustupCargo := filepath.Join(home, ".cargo", "bin", "cargo")
		if _, err := os.Stat(rustupCargo); err == nil {
			return rustupCargo, nil
		}
	}

	return "", fmt.Errorf("cargo not found in PATH or ~/.cargo/bin (install via https://rustup.rs)")
}
