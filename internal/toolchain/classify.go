package toolchain

import (
	"errors"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/dosanma1/crossdeck/internal/errdefs"
)

// diagnosticHint maps a known output pattern to an error kind and an
// actionable suggestion.
type diagnosticHint struct {
	pattern    *regexp.Regexp
	kind       errdefs.Kind
	suggestion string
	retryable  bool
}

var toolchainHints = []diagnosticHint{
	{
		pattern:    regexp.MustCompile(`target may not be installed|is not installed for the target|can't find crate for .core.`),
		kind:       errdefs.KindToolchain,
		suggestion: "install the target's standard library: rustup target add <triple>",
	},
	{
		pattern:    regexp.MustCompile(`linker .+ not found|error: linking with`),
		kind:       errdefs.KindToolchain,
		suggestion: "install the cross linker for the target (mingw-w64 for windows triples)",
	},
	{
		pattern: regexp.MustCompile(`(?m)^error(\[E\d+\])?:`),
		kind:    errdefs.KindToolchain,
	},
}

var environmentHints = []diagnosticHint{
	{
		pattern:    regexp.MustCompile(`Cannot connect to the Docker daemon|Is the docker daemon running|connect: no such file or directory`),
		kind:       errdefs.KindEnvironment,
		suggestion: "start the container runtime daemon",
	},
	{
		pattern:    regexp.MustCompile(`pull access denied|repository does not exist|manifest unknown|manifest for .+ not found|name unknown`),
		kind:       errdefs.KindEnvironment,
		suggestion: "check the image reference in crossdeck.yaml",
	},
	{
		pattern:    regexp.MustCompile(`(?i)permission denied.*(volume|mount)|error while mounting`),
		kind:       errdefs.KindEnvironment,
		suggestion: "check that the repository can be volume-mounted (SELinux or rootless setups may block it)",
	},
	{
		pattern:    regexp.MustCompile(`(?i)tls handshake timeout|i/o timeout|temporary failure in name resolution|connection reset by peer`),
		kind:       errdefs.KindEnvironment,
		suggestion: "transient network failure; retrying usually helps",
		retryable:  true,
	},
	{
		pattern: regexp.MustCompile(`no space left on device`),
		kind:    errdefs.KindEnvironment,
	},
}

// ClassifyNative turns a failed host build into a typed error. Host
// builds are toolchain failures by definition: cargo was found or the
// executor would not exist.
func ClassifyNative(task, output string, err error) *errdefs.Error {
	for _, h := range toolchainHints {
		if h.pattern.MatchString(output) {
			return newClassified(h, task, output, err)
		}
	}
	return errdefs.Wrap(errdefs.KindToolchain, task, err, buildFailureMsg(err)).
		WithDiagnostics(output)
}

// ClassifyContainer turns a failed containerized build into a typed
// error, separating infrastructure faults from compiler errors that
// merely happened inside a container.
func ClassifyContainer(task, output string, err error) *errdefs.Error {
	for _, h := range environmentHints {
		if h.pattern.MatchString(output) {
			return newClassified(h, task, output, err)
		}
	}

	// Runtime-level exit codes: the container never ran the build.
	switch exitCode(err) {
	case 125, 126, 127:
		return errdefs.Wrap(errdefs.KindEnvironment, task, err, "container runtime could not start the build").
			WithDiagnostics(output)
	}

	// The build ran and failed; classify like a host build.
	for _, h := range toolchainHints {
		if h.pattern.MatchString(output) {
			return newClassified(h, task, output, err)
		}
	}
	return errdefs.Wrap(errdefs.KindToolchain, task, err, buildFailureMsg(err)).
		WithDiagnostics(output)
}

// ClassifyPull turns an image pull failure into a typed error.
func ClassifyPull(task, image, output string, err error) *errdefs.Error {
	for _, h := range environmentHints {
		if h.pattern.MatchString(output) {
			return newClassified(h, task, output, err)
		}
	}
	// Pull failures without a recognized pattern are still
	// infrastructure faults, and usually transient ones.
	return errdefs.Wrap(errdefs.KindEnvironment, task, err, "failed to pull image "+image).
		WithDiagnostics(output).
		AsRetryable()
}

func newClassified(h diagnosticHint, task, output string, err error) *errdefs.Error {
	e := errdefs.Wrap(h.kind, task, err, buildFailureMsg(err)).WithDiagnostics(output)
	if h.suggestion != "" {
		e.WithSuggestion(h.suggestion)
	}
	if h.retryable {
		e.AsRetryable()
	}
	return e
}

func buildFailureMsg(err error) string {
	if code := exitCode(err); code > 0 {
		return "build exited with status " + strconv.Itoa(code)
	}
	if err != nil {
		return err.Error()
	}
	return "build failed"
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
