//go:build windows
// +build windows

// Package xos provides atomic file writes. Windows cannot rename over
// an open or existing file in every case, so this variant falls back to
// a same-directory temp file plus remove-and-rename. The visible
// guarantee is the same: no partial file under the final name.
package xos

import (
	"os"
	"path/filepath"
)

// WriteFile writes data to the named file via a temporary file in the
// same directory.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	p, err := NewPendingFile(filename, perm)
	if err != nil {
		return err
	}
	if _, err := p.Write(data); err != nil {
		p.Cleanup()
		return err
	}
	return p.CloseAtomically()
}

// PendingFile is an open temporary file that replaces the target path
// on CloseAtomically. It implements io.Writer so callers can stream
// into it.
type PendingFile struct {
	tempFile *os.File
	tempName string
	path     string
	perm     os.FileMode
}

// NewPendingFile creates a pending file targeting filename with the
// given permissions.
func NewPendingFile(filename string, perm os.FileMode) (*PendingFile, error) {
	dir := filepath.Dir(filename)
	tempFile, err := os.CreateTemp(dir, ".pending-*")
	if err != nil {
		return nil, err
	}
	return &PendingFile{
		tempFile: tempFile,
		tempName: tempFile.Name(),
		path:     filename,
		perm:     perm,
	}, nil
}

// Write writes data to the pending file.
func (p *PendingFile) Write(data []byte) (int, error) {
	return p.tempFile.Write(data)
}

// CloseAtomically completes the write by renaming the temporary file
// over the target path. The pre-rename remove is required on Windows
// when the target already exists.
func (p *PendingFile) CloseAtomically() error {
	if err := p.tempFile.Sync(); err != nil {
		p.Cleanup()
		return err
	}
	if err := p.tempFile.Close(); err != nil {
		os.Remove(p.tempName)
		return err
	}
	if err := os.Chmod(p.tempName, p.perm); err != nil {
		os.Remove(p.tempName)
		return err
	}
	if _, err := os.Stat(p.path); err == nil {
		if err := os.Remove(p.path); err != nil {
			os.Remove(p.tempName)
			return err
		}
	}
	return os.Rename(p.tempName, p.path)
}

// Cleanup discards the pending file without touching the target path.
// Safe to defer alongside CloseAtomically.
func (p *PendingFile) Cleanup() {
	p.tempFile.Close()
	os.Remove(p.tempName)
}

// Path returns the target path of the pending file.
func (p *PendingFile) Path() string {
	return p.path
}
