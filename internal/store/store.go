// Package store is the durable flat-file log store.
//
// It mirrors the layout of the device flash filesystem it replaces: a single
// flat namespace of files addressed by absolute virtual paths ("/clip1.txt")
// rooted at one directory on disk. Session logs are append-only text files.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotMounted wraps every Open failure: the root could not be prepared or
// probed. A mount failure at startup is fatal to the daemon.
var ErrNotMounted = errors.New("store: not mounted")

// Store is a flat-file store over a root directory. Methods are synchronous
// and bounded by filesystem latency; the daemon's single logical thread is
// the only caller.
type Store struct {
	root string
}

// Open mounts the store at root, creating the directory if needed and
// probing that it is usable. Callers must treat an error as fatal: nothing
// else in the system can run without durable storage.
func Open(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty root", ErrNotMounted)
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotMounted, root, err)
	}
	if _, err := usage(root); err != nil {
		return nil, fmt.Errorf("%w: probe %s: %v", ErrNotMounted, root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the backing directory.
func (s *Store) Root() string { return s.root }

// resolve maps a virtual path to the backing file. Virtual paths are flat:
// the basename is taken regardless of any leading separators.
func (s *Store) resolve(vpath string) string {
	return filepath.Join(s.root, path.Base("/"+strings.TrimSpace(vpath)))
}

// Normalize canonicalizes an operator-supplied name into a virtual path:
// a leading "/" is added when absent. The suffix is the caller's concern.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}

// Append appends one line to the file at vpath, creating it if needed.
func (s *Store) Append(vpath, line string) error {
	f, err := os.OpenFile(s.resolve(vpath), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("store: open %s for append: %w", vpath, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("store: append %s: %w", vpath, err)
	}
	return nil
}

// ReadAll returns the full contents of the file at vpath.
func (s *Store) ReadAll(vpath string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(vpath))
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", vpath, err)
	}
	return data, nil
}

// Reader opens the file at vpath for streaming reads. The caller closes it.
func (s *Store) Reader(vpath string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(vpath))
	if err != nil {
		return nil, fmt.Errorf("store: open %s for read: %w", vpath, err)
	}
	return f, nil
}

// Copy streams the raw bytes of the file at vpath to w.
func (s *Store) Copy(vpath string, w io.Writer) error {
	f, err := s.Reader(vpath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("store: copy %s: %w", vpath, err)
	}
	return nil
}

// Exists reports whether a file is present at vpath.
func (s *Store) Exists(vpath string) bool {
	_, err := os.Stat(s.resolve(vpath))
	return err == nil
}

// Enumerate returns the virtual paths of every stored file in sorted order.
// The listing is a snapshot; it goes stale on any mutation.
func (s *Store) Enumerate() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("store: enumerate: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, "/"+e.Name())
	}
	sort.Strings(paths)
	return paths, nil
}

// Remove deletes the file at vpath. It reports whether the file was removed;
// a missing file is not an error beyond the false return, matching the flash
// filesystem it replaces.
func (s *Store) Remove(vpath string) bool {
	return os.Remove(s.resolve(vpath)) == nil
}

// RemoveAll deletes every stored file. The first failure is returned but the
// sweep continues past it.
func (s *Store) RemoveAll() error {
	paths, err := s.Enumerate()
	if err != nil {
		return err
	}

	var firstErr error
	for _, p := range paths {
		if !s.Remove(p) && firstErr == nil {
			firstErr = fmt.Errorf("store: remove %s failed", p)
		}
	}
	return firstErr
}

// Usage reports the backing filesystem's capacity and free space where the
// platform supports it.
func (s *Store) Usage() (Usage, error) {
	return usage(s.root)
}

// Usage describes the backing filesystem.
type Usage struct {
	TotalBytes uint64
	FreeBytes  uint64
}
