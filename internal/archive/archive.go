// Package archive writes the distributable archive from the staging
// tree.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dosanma1/crossdeck/internal/errdefs"
	"github.com/dosanma1/crossdeck/pkg/xos"
)

// TaskName identifies the packaging step in task output and errors.
const TaskName = "package"

// Format selects the archive container.
type Format string

const (
	FormatZip   Format = "zip"
	FormatTarGz Format = "tar.gz"
)

// ParseFormat validates a format string from config or flags. Empty
// defaults to zip.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatZip, "":
		return FormatZip, nil
	case FormatTarGz:
		return FormatTarGz, nil
	default:
		return "", fmt.Errorf("unknown archive format %q (expected zip or tar.gz)", s)
	}
}

// Ext returns the filename extension for the format.
func (f Format) Ext() string {
	return "." + string(f)
}

// archiveEpoch is the fixed timestamp stamped on every entry so runs
// over identical staging trees produce byte-identical archives. Zip
// cannot represent times before 1980.
var archiveEpoch = time.Unix(315532800, 0).UTC()

// Packager archives the package directory beneath the staging root.
type Packager struct {
	stagingRoot string
	pkg         string
}

// NewPackager creates a packager over a staging root and package
// identifier.
func NewPackager(stagingRoot, pkg string) *Packager {
	return &Packager{stagingRoot: stagingRoot, pkg: pkg}
}

// PackageDir returns the directory that becomes the archive's single
// top-level entry.
func (p *Packager) PackageDir() string {
	return filepath.Join(p.stagingRoot, p.pkg)
}

// Package writes the archive to dst. Every entry keeps the package
// identifier prefix so extraction reproduces the staged directory.
// The archive appears at dst complete or not at all.
func (p *Packager) Package(dst string, format Format) error {
	pkgDir := p.PackageDir()

	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		if os.IsNotExist(err) {
			return errdefs.New(errdefs.KindStagingState, TaskName,
				fmt.Sprintf("staging directory %s does not exist", pkgDir)).
				WithSuggestion("Run `crossdeck collect` first")
		}
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "cannot inspect staging directory")
	}
	if len(entries) == 0 {
		return errdefs.New(errdefs.KindStagingState, TaskName,
			fmt.Sprintf("staging directory %s is empty", pkgDir)).
			WithSuggestion("Run `crossdeck collect` first")
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "cannot create dist directory")
	}

	pending, err := xos.NewPendingFile(dst, 0o644)
	if err != nil {
		return errdefs.Wrap(errdefs.KindEnvironment, TaskName, err, "cannot open archive for writing")
	}

	var writeErr error
	switch format {
	case FormatZip:
		writeErr = writeZip(pending, pkgDir, p.pkg)
	case FormatTarGz:
		writeErr = writeTarGz(pending, pkgDir, p.pkg)
	default:
		pending.Cleanup()
		return errdefs.New(errdefs.KindPackaging, TaskName,
			fmt.Sprintf("unknown archive format %q", format))
	}
	if writeErr != nil {
		pending.Cleanup()
		return errdefs.Wrap(errdefs.KindPackaging, TaskName, writeErr, "failed to write archive")
	}

	if err := pending.CloseAtomically(); err != nil {
		return errdefs.Wrap(errdefs.KindPackaging, TaskName, err, "failed to finalize archive")
	}
	return nil
}
