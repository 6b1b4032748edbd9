// Package storage defines the FileStore interface for reading and writing
// files on pluggable backends. Within voiceid it carries voiceprint store
// snapshots: the same export/import code works against local disk or an
// S3-compatible object store.
package storage

import (
	"context"
	"io"
)

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file for reading. The caller must close the
	// returned ReadCloser. If the file does not exist, an error wrapping
	// os.ErrNotExist is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file for writing, replacing any existing
	// content. Parent directories are created automatically. The file
	// becomes visible only once the returned WriteCloser is closed
	// successfully; an abandoned or failed write never clobbers a
	// previous version.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file. Deleting a missing file is not an
	// error (idempotent).
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}
