package release

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// idPattern matches valid kebab-case target identifiers.
	idPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

	// packagePattern matches package identifiers, which become
	// directory and archive names (reverse-DNS style is typical).
	packagePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// Validator checks a configuration beyond what the JSON schema can
// express.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d (expected 1)", cfg.Version)
	}
	if cfg.Package == "" {
		return fmt.Errorf("package identifier is required")
	}
	if err := ValidatePackage(cfg.Package); err != nil {
		return err
	}
	if cfg.Binary == "" {
		return fmt.Errorf("binary name is required")
	}
	if cfg.Manifest == "" {
		return fmt.Errorf("manifest path is required")
	}
	if cfg.Assets == "" {
		return fmt.Errorf("assets path is required")
	}

	switch cfg.Dist.Format {
	case "zip", "tar.gz":
	default:
		return fmt.Errorf("invalid dist format %q (expected zip or tar.gz)", cfg.Dist.Format)
	}

	switch cfg.Container.PullPolicy {
	case "always", "never", "ifNotPresent":
	default:
		return fmt.Errorf("invalid pull policy %q (expected always, never, or ifNotPresent)", cfg.Container.PullPolicy)
	}
	if cfg.Container.PullRetries < 0 {
		return fmt.Errorf("pullRetries must not be negative")
	}

	if len(cfg.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}
	return v.validateTargets(cfg.Targets)
}

// validateTargets validates every target and cross-target uniqueness.
func (v *Validator) validateTargets(targets []Target) error {
	seenIDs := make(map[string]bool, len(targets))
	seenStaged := make(map[string]string, len(targets))

	for _, t := range targets {
		if err := v.validateTarget(&t); err != nil {
			return fmt.Errorf("target %q: %w", t.ID, err)
		}
		if seenIDs[t.ID] {
			return fmt.Errorf("duplicate target id %q", t.ID)
		}
		seenIDs[t.ID] = true

		staged := t.StagedName()
		if other, dup := seenStaged[staged]; dup {
			return fmt.Errorf("targets %q and %q stage the same artifact name %q", other, t.ID, staged)
		}
		seenStaged[staged] = t.ID
	}
	return nil
}

// validateTarget validates a single target.
func (v *Validator) validateTarget(t *Target) error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if err := ValidateID(t.ID); err != nil {
		return err
	}

	switch t.Backend {
	case BackendNative:
		if t.Image != "" {
			return fmt.Errorf("image is only valid for containerized targets")
		}
	case BackendContainerized:
		if t.Image == "" {
			return fmt.Errorf("containerized targets require an image")
		}
	default:
		return fmt.Errorf("invalid backend %q (expected native or containerized)", t.Backend)
	}

	if t.Triple == "" {
		return fmt.Errorf("triple is required")
	}
	if t.Artifact == "" {
		return fmt.Errorf("artifact name is required")
	}

	if t.Output != "" {
		if filepath.IsAbs(t.Output) {
			return fmt.Errorf("output must be relative to the repository root")
		}
		clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(t.Output)))
		if clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("output must not escape the repository root")
		}
	}
	return nil
}

// ValidateID checks that a target identifier is kebab-case.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid id %q: must be kebab-case (lowercase letters, digits, hyphens)", id)
	}
	return nil
}

// ValidatePackage checks that a package identifier is usable as a
// directory and archive name.
func ValidatePackage(pkg string) error {
	if !packagePattern.MatchString(pkg) {
		return fmt.Errorf("invalid package identifier %q: letters, digits, dots, underscores and hyphens only", pkg)
	}
	return nil
}
