package release

import (
	"os"
	"strconv"
)

// Resolver resolves runtime settings with precedence:
// CLI flag > CROSSDECK_* environment variable > crossdeck.yaml value >
// built-in default.
type Resolver struct {
	cfg *Config
}

// NewResolver creates a resolver over the loaded configuration.
func NewResolver(cfg *Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Jobs resolves the build concurrency bound. Zero means one per CPU.
func (r *Resolver) Jobs(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv("CROSSDECK_JOBS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return n
		}
	}
	if r.cfg.Build.Jobs > 0 {
		return r.cfg.Build.Jobs
	}
	return 0
}

// Runtime resolves the container runtime binary. Empty means
// auto-detect.
func (r *Resolver) Runtime(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CROSSDECK_RUNTIME"); env != "" {
		return env
	}
	return r.cfg.Container.Runtime
}

// PullPolicy resolves the image pull policy.
func (r *Resolver) PullPolicy(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CROSSDECK_PULL_POLICY"); env != "" {
		return env
	}
	return r.cfg.Container.PullPolicy
}

// PullRetries resolves the bounded retry count for transient pull
// failures.
func (r *Resolver) PullRetries() int {
	if env := os.Getenv("CROSSDECK_PULL_RETRIES"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n >= 0 {
			return n
		}
	}
	return r.cfg.Container.PullRetries
}
