// Package snapshot persists the aggregate report as a single JSON document.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/naka-gawa/github-stats-sync/internal/domain"
)

// Default indentation for pretty-printed JSON.
const defaultIndent = "  "

// Info describes a written snapshot.
type Info struct {
	Path string
	Size int64
}

// Writer writes reports to a fixed path.
type Writer struct {
	path string
}

// NewWriter creates a Writer for path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the destination of the snapshot.
func (w *Writer) Path() string {
	return w.path
}

// Save replaces the snapshot with report. Parent directories are created as needed.
// The document is written to a temporary file next to the target and renamed over
// it, so readers never observe a partially written snapshot.
func (w *Writer) Save(report *domain.Report) (Info, error) {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Info{}, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return Info{}, fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, report); err != nil {
		tmp.Close()
		return Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return Info{}, fmt.Errorf("failed to close temporary snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return Info{}, fmt.Errorf("failed to set snapshot permissions: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return Info{}, fmt.Errorf("failed to replace snapshot: %w", err)
	}

	stat, err := os.Stat(w.path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	return Info{Path: w.path, Size: stat.Size()}, nil
}

// Encode writes report as indented JSON.
func Encode(out io.Writer, report *domain.Report) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", defaultIndent)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// Load reads a snapshot from path.
func Load(path string) (*domain.Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	var report domain.Report
	if err := json.NewDecoder(file).Decode(&report); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return &report, nil
}
