// Package output writes baked documents to disk.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
)

// DefaultExtension is appended to lower-cased clip names.
const DefaultExtension = ".clj"

// ErrNoDirs is returned by Write when no output directory is configured.
var ErrNoDirs = errors.New("no output directory configured")

// Writer writes each document into every directory in Dirs.
type Writer struct {
	Dirs      []string
	Extension string
}

// NewWriter returns a Writer using DefaultExtension.
func NewWriter(dirs ...string) *Writer {
	return &Writer{Dirs: dirs, Extension: DefaultExtension}
}

// FileName returns the file name used for a clip.
func (w *Writer) FileName(clip string) string {
	ext := w.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(clip) + ext
}

// Write stores data as FileName(name) in every directory. A failure in one
// directory does not stop the others; the written paths and the combined
// error are returned.
func (w *Writer) Write(name string, data []byte) ([]string, error) {
	if len(w.Dirs) == 0 {
		return nil, ErrNoDirs
	}

	var (
		paths []string
		errs  error
	)
	for _, dir := range w.Dirs {
		path := filepath.Join(dir, w.FileName(name))
		if err := writeFile(path, data); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("writing %s: %w", path, err))
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		paths = append(paths, path)
	}
	return paths, errs
}

// writeFile replaces path through a temp file in the same directory, so a
// failed write never leaves a truncated file behind.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
