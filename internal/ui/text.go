package ui

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// AskText prompts for a line of text. validate may be nil.
func AskText(label, defaultValue string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: validate,
	}

	value, err := prompt.Run()
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return "", ErrCancelled
	default:
		return "", fmt.Errorf("text prompt failed: %w", err)
	}
}
