// Package ui wraps the interactive prompts used by the CLI.
package ui

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned when the user interrupts a prompt.
var ErrCancelled = errors.New("cancelled")

// AskConfirm prompts for yes/no confirmation. Answering no returns
// (false, nil); interrupting returns ErrCancelled.
func AskConfirm(label string, defaultYes bool) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		prompt.Default = "y"
	}

	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, ErrCancelled
	default:
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
}
