//go:build !windows
// +build !windows

// Package xos provides atomic file writes. Content written through it
// becomes visible at the target path only after a successful rename, so
// a crash or write error never leaves a partial file under the final
// name.
package xos

import (
	"os"

	"github.com/google/renameio/v2"
)

// WriteFile writes data to the named file atomically.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(filename, data, perm)
}

// PendingFile is an open temporary file that replaces the target path
// atomically on CloseAtomically. It implements io.Writer so callers can
// stream into it.
type PendingFile struct {
	tempFile *renameio.PendingFile
	path     string
}

// NewPendingFile creates a pending file targeting filename with the
// given permissions. The temporary file lives next to the target so the
// final rename stays on one filesystem.
func NewPendingFile(filename string, perm os.FileMode) (*PendingFile, error) {
	t, err := renameio.TempFile("", filename)
	if err != nil {
		return nil, err
	}
	if err := t.Chmod(perm); err != nil {
		t.Cleanup()
		return nil, err
	}
	return &PendingFile{tempFile: t, path: filename}, nil
}

// Write writes data to the pending file.
func (p *PendingFile) Write(data []byte) (int, error) {
	return p.tempFile.Write(data)
}

// CloseAtomically completes the write by renaming the temporary file
// over the target path.
func (p *PendingFile) CloseAtomically() error {
	return p.tempFile.CloseAtomicallyReplace()
}

// Cleanup discards the pending file without touching the target path.
// Safe to defer alongside CloseAtomically.
func (p *PendingFile) Cleanup() {
	p.tempFile.Cleanup()
}

// Path returns the target path of the pending file.
func (p *PendingFile) Path() string {
	return p.path
}
