// Package archive packs and unpacks document files. A document on disk is
// a single zip archive holding the database file at its root and the image
// assets under assets/. While a document is open its contents live
// extracted in a scratch working directory.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/cardboxapp/cardbox/pkg/types"
)

// Extension is the document file extension.
const Extension = ".cardbox"

// Extract unpacks an archive into workDir. The directory is created if
// missing; existing files are overwritten.
func Extract(archivePath, workDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("document %s: %w", archivePath, types.ErrNotFound)
		}
		return fmt.Errorf("%w: opening archive: %v", types.ErrCorruptState, err)
	}
	defer r.Close()

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating work dir: %v", types.ErrStorage, err)
	}

	for _, f := range r.File {
		if err := extractFile(f, workDir); err != nil {
			return err
		}
	}
	slog.Debug("extracted document", "archive", archivePath, "workdir", workDir, "files", len(r.File))
	return nil
}

func extractFile(f *zip.File, workDir string) error {
	// Reject entries that would escape the working directory.
	name := filepath.FromSlash(f.Name)
	dest := filepath.Join(workDir, name)
	if !strings.HasPrefix(dest, filepath.Clean(workDir)+string(os.PathSeparator)) {
		return fmt.Errorf("%w: archive entry %q escapes work dir", types.ErrCorruptState, f.Name)
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%w: creating dir: %v", types.ErrStorage, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: reading archive entry %q: %v", types.ErrCorruptState, f.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: creating file: %v", types.ErrStorage, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("%w: extracting %q: %v", types.ErrStorage, f.Name, err)
	}
	return nil
}

// Pack zips the contents of workDir and atomically replaces archivePath.
// The archive is built fully in memory first; a crash mid-save never leaves
// a half-written document behind.
func Pack(workDir, archivePath string) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	count := 0
	err := filepath.WalkDir(workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(workDir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		if _, err := io.Copy(w, src); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: packing document: %v", types.ErrStorage, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finishing archive: %v", types.ErrStorage, err)
	}

	if err := atomic.WriteFile(archivePath, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("%w: writing archive: %v", types.ErrStorage, err)
	}
	slog.Debug("packed document", "archive", archivePath, "files", count)
	return nil
}
