package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultOutputName returns the timestamp-derived file name used when the
// caller supplies no output path.
func DefaultOutputName(mode Mode, now time.Time) string {
	return fmt.Sprintf("crm_export_%s_%s.csv", mode, now.Format("20060102_150405"))
}

// ResolveOutputPath returns path when set, otherwise the default name inside dir.
func ResolveOutputPath(path, dir string, mode Mode, now time.Time) string {
	if path != "" {
		return path
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, DefaultOutputName(mode, now))
}

// OutputFile is an export destination that only appears at its final path
// once Commit succeeds. Until then data goes to a sibling temporary file.
type OutputFile struct {
	path    string
	tmpPath string
	file    *os.File
	done    bool
}

// CreateOutput opens a temporary file next to path. suffix distinguishes
// concurrent runs and is usually the run id.
func CreateOutput(path, suffix string) (*OutputFile, error) {
	tmpPath := fmt.Sprintf("%s.tmp-%s", path, suffix)

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	return &OutputFile{path: path, tmpPath: tmpPath, file: f}, nil
}

// Write implements io.Writer.
func (o *OutputFile) Write(p []byte) (int, error) {
	return o.file.Write(p)
}

// Path returns the final output path.
func (o *OutputFile) Path() string {
	return o.path
}

// Commit syncs and closes the temporary file and renames it onto the final path.
func (o *OutputFile) Commit() error {
	if o.done {
		return fmt.Errorf("output already finalized")
	}
	o.done = true

	if err := o.file.Sync(); err != nil {
		o.file.Close()
		os.Remove(o.tmpPath)
		return fmt.Errorf("sync output: %w", err)
	}
	if err := o.file.Close(); err != nil {
		os.Remove(o.tmpPath)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(o.tmpPath, o.path); err != nil {
		os.Remove(o.tmpPath)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// Abort closes and removes the temporary file. Safe to call after Commit.
func (o *OutputFile) Abort() {
	if o.done {
		return
	}
	o.done = true
	o.file.Close()
	os.Remove(o.tmpPath)
}
