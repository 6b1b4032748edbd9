package voiceprint

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/haivivi/voiceid/pkg/storage"
)

// Snapshot format (little-endian):
//
//	[4B magic "VPSN"] [4B version] [4B record count]
//	For each record:
//	  [4B len + bytes speaker id]
//	  [4B len + bytes speaker name]
//	  [4B len + bytes model tag]
//	  [4B len + bytes source ref]
//	  [8B registered-at, Unix nanoseconds]
//	  [4B dim] [dim × 4B float32]
//
// A snapshot is a self-contained single-file image of the whole store, used
// for backup and for moving an enrollment database between deployments.

var snapshotMagic = [4]byte{'V', 'P', 'S', 'N'}

const snapshotVersion uint32 = 1

// Length fields in a corrupt stream must not drive huge allocations before
// the read fails, so string and embedding sizes are bounded.
const (
	maxSnapshotString = 1 << 16 // bytes per string field
	maxSnapshotDim    = 1 << 20 // floats per embedding
)

// WriteSnapshot serializes the current store contents to w in insertion
// order. The store may serve reads concurrently; mutations are blocked for
// the duration of the write.
func (s *Store) WriteSnapshot(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bw := bufio.NewWriter(w)
	le := binary.LittleEndian

	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return fmt.Errorf("voiceprint: write snapshot: %w", err)
	}
	if err := binary.Write(bw, le, snapshotVersion); err != nil {
		return fmt.Errorf("voiceprint: write snapshot: %w", err)
	}
	if err := binary.Write(bw, le, uint32(len(s.order))); err != nil {
		return fmt.Errorf("voiceprint: write snapshot: %w", err)
	}

	writeString := func(v string) error {
		if err := binary.Write(bw, le, uint32(len(v))); err != nil {
			return err
		}
		_, err := bw.WriteString(v)
		return err
	}

	for _, id := range s.order {
		rec := s.records[id]
		for _, v := range []string{rec.SpeakerID, rec.SpeakerName, rec.ModelTag, rec.SourceRef} {
			if err := writeString(v); err != nil {
				return fmt.Errorf("voiceprint: write snapshot: %w", err)
			}
		}
		if err := binary.Write(bw, le, rec.RegisteredAt.UnixNano()); err != nil {
			return fmt.Errorf("voiceprint: write snapshot: %w", err)
		}
		if err := binary.Write(bw, le, uint32(len(rec.Embedding))); err != nil {
			return fmt.Errorf("voiceprint: write snapshot: %w", err)
		}
		if err := binary.Write(bw, le, rec.Embedding); err != nil {
			return fmt.Errorf("voiceprint: write snapshot: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("voiceprint: write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot parses a snapshot stream into records.
func ReadSnapshot(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	le := binary.LittleEndian

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("voiceprint: read snapshot: %w", err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("voiceprint: bad snapshot magic %q", magic[:])
	}
	var version uint32
	if err := binary.Read(br, le, &version); err != nil {
		return nil, fmt.Errorf("voiceprint: read snapshot: %w", err)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("voiceprint: unsupported snapshot version %d", version)
	}

	var count uint32
	if err := binary.Read(br, le, &count); err != nil {
		return nil, fmt.Errorf("voiceprint: read snapshot: %w", err)
	}

	readString := func() (string, error) {
		var n uint32
		if err := binary.Read(br, le, &n); err != nil {
			return "", err
		}
		if n > maxSnapshotString {
			return "", fmt.Errorf("string length %d exceeds %d", n, maxSnapshotString)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return "", err
		}
		return string(buf), nil
	}

	// The declared count is only a capacity hint; a truncated stream still
	// fails record by record, so cap the preallocation.
	records := make([]Record, 0, min(count, 1024))
	for i := uint32(0); i < count; i++ {
		var rec Record
		var err error
		if rec.SpeakerID, err = readString(); err != nil {
			return nil, fmt.Errorf("voiceprint: read snapshot record %d: %w", i, err)
		}
		if rec.SpeakerName, err = readString(); err != nil {
			return nil, fmt.Errorf("voiceprint: read snapshot record %d: %w", i, err)
		}
		if rec.ModelTag, err = readString(); err != nil {
			return nil, fmt.Errorf("voiceprint: read snapshot record %d: %w", i, err)
		}
		if rec.SourceRef, err = readString(); err != nil {
			return nil, fmt.Errorf("voiceprint: read snapshot record %d: %w", i, err)
		}
		var ts int64
		if err := binary.Read(br, le, &ts); err != nil {
			return nil, fmt.Errorf("voiceprint: read snapshot record %d: %w", i, err)
		}
		rec.RegisteredAt = time.Unix(0, ts)
		var dim uint32
		if err := binary.Read(br, le, &dim); err != nil {
			return nil, fmt.Errorf("voiceprint: read snapshot record %d: %w", i, err)
		}
		if dim > maxSnapshotDim {
			return nil, fmt.Errorf("voiceprint: read snapshot record %d: dimension %d exceeds %d", i, dim, maxSnapshotDim)
		}
		rec.Embedding = make([]float32, dim)
		if err := binary.Read(br, le, rec.Embedding); err != nil {
			return nil, fmt.Errorf("voiceprint: read snapshot record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ImportSnapshot enrolls every record from a snapshot stream, preserving
// original registration timestamps. Records are validated before any of
// them is applied; existing speakers with the same ids are overwritten.
func (s *Store) ImportSnapshot(ctx context.Context, r io.Reader) error {
	records, err := ReadSnapshot(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole set against the store dimensionality up front so
	// a bad record cannot leave a half-imported snapshot behind.
	dim := s.dim
	for i := range records {
		rec := &records[i]
		if rec.SpeakerID == "" || rec.ModelTag == "" {
			return fmt.Errorf("voiceprint: snapshot record %d missing id or model tag", i)
		}
		if err := validateEmbedding(rec.Embedding); err != nil {
			return fmt.Errorf("snapshot record %d: %w", i, err)
		}
		if dim == 0 {
			dim = len(rec.Embedding)
		} else if len(rec.Embedding) != dim {
			return fmt.Errorf("%w: snapshot record %d has dimension %d, want %d",
				ErrInvalidEmbedding, i, len(rec.Embedding), dim)
		}
	}

	for i := range records {
		rec := records[i]
		if err := s.putLocked(ctx, &rec); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshotFile writes a snapshot to path via a temporary file and an
// atomic rename, so an interrupted write never leaves a half-written
// snapshot where a previous one was.
func (s *Store) SaveSnapshotFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("voiceprint: save snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("voiceprint: save snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.WriteSnapshot(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("voiceprint: save snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("voiceprint: save snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("voiceprint: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshotFile imports a snapshot from a local file.
func (s *Store) LoadSnapshotFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("voiceprint: load snapshot: %w", err)
	}
	defer f.Close()
	return s.ImportSnapshot(ctx, f)
}

// ExportTo writes a snapshot to the named path on a FileStore (local disk
// or an object store such as S3).
func (s *Store) ExportTo(ctx context.Context, fs storage.FileStore, path string) error {
	w, err := fs.Write(ctx, path)
	if err != nil {
		return fmt.Errorf("voiceprint: export snapshot: %w", err)
	}
	if err := s.WriteSnapshot(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("voiceprint: export snapshot: %w", err)
	}
	return nil
}

// ImportFrom reads a snapshot from the named path on a FileStore.
func (s *Store) ImportFrom(ctx context.Context, fs storage.FileStore, path string) error {
	r, err := fs.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("voiceprint: import snapshot: %w", err)
	}
	defer r.Close()
	return s.ImportSnapshot(ctx, r)
}
