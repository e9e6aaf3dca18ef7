// Package fsys is the filesystem the download queue writes through.
//
// Destination files are never held open between writes: every [FS.Append]
// opens, writes and closes the file.
package fsys

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FS is the set of file operations the download queue needs.
type FS interface {
	Exists(path string) bool
	Remove(path string) error
	Append(path string, data []byte) error
	Open(path string) (io.ReadCloser, error)
	Size(path string) (int64, error)
}

// OS implements FS on the host filesystem. When Root is set, relative
// paths are resolved under it.
type OS struct {
	Root string
}

// New returns an OS filesystem rooted at root. An empty root uses paths
// unchanged.
func New(root string) *OS {
	return &OS{Root: root}
}

// Exists reports whether path names an existing file.
func (o *OS) Exists(path string) bool {
	_, err := os.Stat(o.resolve(path))
	return err == nil
}

// Remove deletes path. Removing a file that does not exist is not an error.
func (o *OS) Remove(path string) error {
	if err := os.Remove(o.resolve(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}

	return nil
}

// Append writes data to the end of path, creating it and any missing parent
// directories first.
func (o *OS) Append(path string, data []byte) (err error) {
	name := o.resolve(path)

	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("creating parent dir: %w", err)
	}

	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}

	return nil
}

// Open opens path for streaming reads.
func (o *OS) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(o.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	return f, nil
}

// Size returns the size of path in bytes.
func (o *OS) Size(path string) (int64, error) {
	fi, err := os.Stat(o.resolve(path))
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	return fi.Size(), nil
}

func (o *OS) resolve(path string) string {
	if o.Root == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(o.Root, path)
}
