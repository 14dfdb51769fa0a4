package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// stagedEntry is one filesystem object to archive.
type stagedEntry struct {
	path string // source path on disk
	name string // slash-separated archive name, package prefix included
	mode fs.FileMode
	size int64
	dir  bool
}

// walkStaged visits the package tree in lexical order, starting with
// the package directory itself. Lexical order keeps entry order, and
// with it archive bytes, stable across runs.
func walkStaged(pkgDir, pkg string, fn func(stagedEntry) error) error {
	return filepath.WalkDir(pkgDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(pkgDir, p)
		if err != nil {
			return err
		}
		name := pkg
		if rel != "." {
			name = path.Join(pkg, filepath.ToSlash(rel))
		}

		if d.IsDir() {
			return fn(stagedEntry{path: p, name: name, mode: info.Mode(), dir: true})
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("unsupported file type at %s", p)
		}
		return fn(stagedEntry{path: p, name: name, mode: info.Mode(), size: info.Size()})
	})
}

func writeZip(w io.Writer, pkgDir, pkg string) error {
	zw := zip.NewWriter(w)

	err := walkStaged(pkgDir, pkg, func(entry stagedEntry) error {
		hdr := &zip.FileHeader{
			Name:     entry.name,
			Modified: archiveEpoch,
		}
		hdr.SetMode(entry.mode)

		if entry.dir {
			hdr.Name += "/"
			_, err := zw.CreateHeader(hdr)
			return err
		}

		hdr.Method = zip.Deflate
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(entry.path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(fw, f)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func writeTarGz(w io.Writer, pkgDir, pkg string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := walkStaged(pkgDir, pkg, func(entry stagedEntry) error {
		hdr := &tar.Header{
			Name:    entry.name,
			Mode:    int64(entry.mode.Perm()),
			ModTime: archiveEpoch,
		}

		if entry.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
			return tw.WriteHeader(hdr)
		}

		hdr.Typeflag = tar.TypeReg
		hdr.Size = entry.size
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(entry.path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		tw.Close()
		gz.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
