// Package artifact maintains the flat port list left behind for the operator.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// PortList is a plain-text file holding one entry per line. Every write
// replaces the whole file; nothing is ever appended or read back.
type PortList struct {
	path string
}

// NewPortList returns a PortList stored at path.
func NewPortList(path string) *PortList {
	return &PortList{path: path}
}

// Path returns the file location as configured.
func (l *PortList) Path() string {
	return l.path
}

// Truncate creates the file, or empties it when it already exists.
func (l *PortList) Truncate() error {
	return l.replace(nil)
}

// Write replaces the file contents with lines, each terminated by "\n".
func (l *PortList) Write(lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return l.replace([]byte(b.String()))
}

// lockPath is a hidden sibling of the list so the lock never shows up as a
// second artifact in directory listings.
func (l *PortList) lockPath() string {
	dir, name := filepath.Split(l.path)
	return filepath.Join(dir, "."+name+".lock")
}

func (l *PortList) replace(data []byte) error {
	if dir := filepath.Dir(l.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	lock := flock.New(l.lockPath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	defer func() { _ = lock.Unlock() }()

	return writeAtomic(l.path, data)
}

// writeAtomic writes data to a temp file in the same directory and renames
// it over path, so readers see either the old or the new list.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmpF, err := os.CreateTemp(dir, ".hostrecon-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpF.Name()

	cleanup := func() {
		_ = tmpF.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmpF.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpF.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpF.Chmod(0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmpF.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp -> final: %w", err)
	}
	return nil
}
