package backend

import (
	"context"
	"time"

	"github.com/dosanma1/crossdeck/internal/toolchain"
)

// CargoBuilder runs cargo release builds on the host.
type CargoBuilder interface {
	Build(ctx context.Context, triple, targetDir string, extraArgs []string) (string, error)
}

// Native builds targets with the host cargo toolchain.
type Native struct {
	cargo CargoBuilder
}

// NewNative creates the host-toolchain backend.
func NewNative(cargo CargoBuilder) *Native {
	return &Native{cargo: cargo}
}

// Name returns the backend identifier.
func (n *Native) Name() string {
	return "native"
}

// Build compiles the target on the host. Each target builds into its
// own target directory so parallel builds never share cargo state.
func (n *Native) Build(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	targetDir := req.Target.TargetDir(req.BuildRoot)
	output, err := n.cargo.Build(ctx, req.Target.Triple, targetDir, req.ExtraArgs)
	if err != nil {
		return nil, toolchain.ClassifyNative(req.TaskName, output, err)
	}

	return &Result{Output: output, Duration: time.Since(start)}, nil
}
