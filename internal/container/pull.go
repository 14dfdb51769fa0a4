package container

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/dosanma1/crossdeck/internal/errdefs"
	"github.com/dosanma1/crossdeck/internal/toolchain"
)

// Pull policies for build images.
const (
	PullAlways       = "always"
	PullNever        = "never"
	PullIfNotPresent = "ifNotPresent"
)

// ImagePresent reports whether the image exists in the local store.
func (r *Runtime) ImagePresent(ctx context.Context, image string) (bool, error) {
	cmd := exec.CommandContext(ctx, r.path, "images", "-q", image)

	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to query local images: %w", err)
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// shouldPull decides whether an image must be pulled under a policy.
func shouldPull(policy string, present bool) (bool, error) {
	switch policy {
	case PullAlways:
		return true, nil
	case PullNever:
		if !present {
			return false, fmt.Errorf("image not present locally and pull policy is %q", PullNever)
		}
		return false, nil
	case PullIfNotPresent, "":
		return !present, nil
	default:
		return false, fmt.Errorf("unknown pull policy %q", policy)
	}
}

// EnsureImage makes an image available locally according to the pull
// policy, retrying transient pull failures up to retries extra
// attempts.
func (r *Runtime) EnsureImage(ctx context.Context, task, image, policy string, retries int) error {
	present, err := r.ImagePresent(ctx, image)
	if err != nil {
		return errdefs.Wrap(errdefs.KindEnvironment, task, err, fmt.Sprintf("cannot query %s image store", r.name)).
			WithSuggestion(fmt.Sprintf("Check that the %s daemon is running", r.name))
	}

	pull, err := shouldPull(policy, present)
	if err != nil {
		return errdefs.New(errdefs.KindEnvironment, task, err.Error()).
			WithSuggestion(fmt.Sprintf("Pull %s manually or set container.pullPolicy to %q", image, PullIfNotPresent))
	}
	if !pull {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * 2 * time.Second
			fmt.Printf("⚠️  Pull failed, retrying in %s (attempt %d/%d)\n", wait, attempt, retries)
			select {
			case <-ctx.Done():
				return errdefs.Wrap(errdefs.KindEnvironment, task, ctx.Err(), fmt.Sprintf("pull of %s interrupted", image))
			case <-time.After(wait):
			}
		}

		err := r.pull(ctx, task, image)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errdefs.IsRetryable(err) {
			return err
		}
	}
	return lastErr
}

// pull fetches one image, showing a spinner unless verbose output is
// streaming.
func (r *Runtime) pull(ctx context.Context, task, image string) error {
	cmd := exec.CommandContext(ctx, r.path, "pull", image)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if r.verbose {
		fmt.Printf("📥 Pulling %s...\n", image)
		err := cmd.Run()
		fmt.Print(buf.String())
		if err != nil {
			return toolchain.ClassifyPull(task, image, buf.String(), err)
		}
		return nil
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("📥 Pulling %s", image)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	err := cmd.Run()
	close(done)
	bar.Finish()

	if err != nil {
		return toolchain.ClassifyPull(task, image, buf.String(), err)
	}
	return nil
}
