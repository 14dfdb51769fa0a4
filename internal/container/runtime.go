// Package container drives the container runtime used by the
// containerized build backend.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Runtime is a resolved container runtime binary (docker or podman).
type Runtime struct {
	path    string
	name    string
	verbose bool
}

// Detect locates a container runtime. preferred may name a binary;
// empty tries docker then podman.
func Detect(preferred string, verbose bool) (*Runtime, error) {
	if preferred != "" {
		path, err := exec.LookPath(preferred)
		if err != nil {
			return nil, fmt.Errorf("container runtime %q not found in PATH: %w", preferred, err)
		}
		return &Runtime{path: path, name: preferred, verbose: verbose}, nil
	}

	for _, candidate := range []string{"docker", "podman"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return &Runtime{path: path, name: candidate, verbose: verbose}, nil
		}
	}
	return nil, fmt.Errorf("no container runtime found in PATH (tried docker, podman)")
}

// Name returns the runtime binary name.
func (r *Runtime) Name() string {
	return r.name
}

// Path returns the resolved runtime binary path.
func (r *Runtime) Path() string {
	return r.path
}

// Version returns the runtime version string.
func (r *Runtime) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.path, "--version")

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// Mount maps a host directory into the container.
type Mount struct {
	Source string
	Target string
}

// RunSpec describes one containerized invocation.
type RunSpec struct {
	Image   string
	Mount   Mount
	Workdir string
	Env     map[string]string
	Argv    []string
}

// runArgs assembles the runtime command line for a spec. Environment
// variables are emitted in sorted order so invocations are
// reproducible.
func runArgs(spec RunSpec) []string {
	args := []string{"run", "--rm"}
	if spec.Mount.Source != "" {
		args = append(args, "-v", spec.Mount.Source+":"+spec.Mount.Target)
	}
	if spec.Workdir != "" {
		args = append(args, "-w", spec.Workdir)
	}

	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+spec.Env[k])
	}

	args = append(args, spec.Image)
	return append(args, spec.Argv...)
}

// Run executes a container and returns its combined output.
func (r *Runtime) Run(ctx context.Context, spec RunSpec) (string, error) {
	cmd := exec.CommandContext(ctx, r.path, runArgs(spec)...)

	var buf bytes.Buffer
	if r.verbose {
		cmd.Stdout = io.MultiWriter(os.Stdout, &buf)
		cmd.Stderr = io.MultiWriter(os.Stderr, &buf)
	} else {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	}

	err := cmd.Run()
	return buf.String(), err
}
