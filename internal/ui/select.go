package ui

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// AskSelect prompts the user to pick one item from a list.
func AskSelect(label string, items []string) (string, error) {
	sel := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
	}

	_, value, err := sel.Run()
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return "", ErrCancelled
	default:
		return "", fmt.Errorf("selection prompt failed: %w", err)
	}
}
