package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local implements FileStore on top of the local filesystem. All paths are
// resolved relative to the configured root directory.
//
// Writes are atomic: data is streamed to a temporary file in the target
// directory and renamed into place on Close, so readers never observe a
// half-written file and an interrupted write leaves any previous version
// intact.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir. The directory is created
// (with parents) if it does not already exist.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// resolve turns a storage path into an absolute filesystem path.
func (l *Local) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

func (l *Local) Read(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(l.resolve(path))
}

func (l *Local) Write(_ context.Context, path string) (io.WriteCloser, error) {
	full := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), filepath.Base(full)+".tmp*")
	if err != nil {
		return nil, err
	}
	return &atomicWriter{f: tmp, target: full}, nil
}

func (l *Local) Delete(_ context.Context, path string) error {
	err := os.Remove(l.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// atomicWriter stages data in a temp file and renames it over the target on
// a successful Close.
type atomicWriter struct {
	f      *os.File
	target string
	closed bool
}

func (w *atomicWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *atomicWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.f.Sync(); err != nil {
		w.f.Close()
		os.Remove(w.f.Name())
		return err
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.f.Name())
		return err
	}
	if err := os.Rename(w.f.Name(), w.target); err != nil {
		os.Remove(w.f.Name())
		return err
	}
	return nil
}

// Compile-time interface check.
var _ FileStore = (*Local)(nil)
