// Package backend provides pluggable build execution for release
// targets. Different backends build through different mechanisms
// (host toolchain, container images).
package backend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dosanma1/crossdeck/internal/release"
)

// Backend runs the release build for one target.
type Backend interface {
	// Name returns the backend identifier (e.g. "native", "containerized")
	Name() string

	// Build compiles the target and returns the captured output.
	Build(ctx context.Context, req *Request) (*Result, error)
}

// Request describes one target build.
type Request struct {
	// TaskName labels failures produced by this build.
	TaskName string

	// Target is the resolved target descriptor.
	Target release.Target

	// RepoRoot is the directory containing Cargo.toml.
	RepoRoot string

	// BuildRoot is the absolute build directory shared by all targets.
	BuildRoot string

	// ExtraArgs are appended to the cargo build invocation.
	ExtraArgs []string
}

// Result contains the outcome of a completed build.
type Result struct {
	// Output is the combined build output.
	Output string

	// Duration is the wall-clock build time.
	Duration time.Duration
}

// Registry manages available backends keyed by the backend kind
// declared on a target.
type Registry struct {
	backends map[release.BackendKind]Backend
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[release.BackendKind]Backend),
	}
}

// Register adds a backend for a kind.
func (r *Registry) Register(kind release.BackendKind, backend Backend) error {
	if _, exists := r.backends[kind]; exists {
		return fmt.Errorf("backend for kind %q already registered", kind)
	}
	r.backends[kind] = backend
	return nil
}

// Get retrieves the backend for a kind.
func (r *Registry) Get(kind release.BackendKind) (Backend, error) {
	backend, exists := r.backends[kind]
	if !exists {
		return nil, fmt.Errorf("no backend registered for kind %q", kind)
	}
	return backend, nil
}

// List returns the registered kinds in stable order.
func (r *Registry) List() []string {
	kinds := make([]string, 0, len(r.backends))
	for kind := range r.backends {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	return kinds
}
