package voiceprint_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/voiceid/pkg/storage"
	"github.com/haivivi/voiceid/pkg/voiceprint"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, _ := newStore(t)

	if _, err := src.Register(ctx, voiceprint.Registration{
		SpeakerID:   "alice",
		SpeakerName: "Alice",
		Embedding:   []float32{1, 0, 0},
		ModelTag:    "m1",
		SourceRef:   "alice.wav",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	mustRegister(t, src, "bob", []float32{0, 1, 0})

	var buf bytes.Buffer
	if err := src.WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	dst, _ := newStore(t)
	if err := dst.ImportSnapshot(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}

	if dst.Count() != 2 {
		t.Fatalf("Count = %d, want 2", dst.Count())
	}
	got, ok := dst.Get("alice")
	if !ok {
		t.Fatal("alice missing after import")
	}
	orig, _ := src.Get("alice")
	if got.SpeakerName != "Alice" || got.SourceRef != "alice.wav" || got.ModelTag != "m1" {
		t.Fatalf("imported record: %+v", got)
	}
	if !got.RegisteredAt.Equal(orig.RegisteredAt) {
		t.Fatalf("RegisteredAt not preserved: %v vs %v", got.RegisteredAt, orig.RegisteredAt)
	}
	list := dst.List()
	if list[0].SpeakerID != "alice" || list[1].SpeakerID != "bob" {
		t.Fatalf("import order: %s, %s", list[0].SpeakerID, list[1].SpeakerID)
	}
}

func TestReadSnapshotRejectsGarbage(t *testing.T) {
	if _, err := voiceprint.ReadSnapshot(bytes.NewReader([]byte("not a snapshot"))); err == nil {
		t.Fatal("garbage accepted")
	}
	if _, err := voiceprint.ReadSnapshot(bytes.NewReader(nil)); err == nil {
		t.Fatal("empty stream accepted")
	}
}

func TestReadSnapshotRejectsOversizedLengths(t *testing.T) {
	le := binary.LittleEndian
	header := func(buf *bytes.Buffer, count uint32) {
		buf.Write([]byte("VPSN"))
		binary.Write(buf, le, uint32(1)) // version
		binary.Write(buf, le, count)
	}

	// A bogus string length must be rejected, not allocated.
	var buf bytes.Buffer
	header(&buf, 1)
	binary.Write(&buf, le, uint32(0xFFFFFFFF))
	if _, err := voiceprint.ReadSnapshot(&buf); err == nil {
		t.Fatal("oversized string length accepted")
	}

	// Same for the embedding dimension.
	buf.Reset()
	header(&buf, 1)
	for range 4 {
		binary.Write(&buf, le, uint32(0)) // empty id, name, tag, source
	}
	binary.Write(&buf, le, int64(0)) // registered-at
	binary.Write(&buf, le, uint32(0xFFFFFFFF))
	if _, err := voiceprint.ReadSnapshot(&buf); err == nil {
		t.Fatal("oversized embedding dimension accepted")
	}
}

func TestImportSnapshotValidatesBeforeApplying(t *testing.T) {
	ctx := context.Background()
	src, _ := newStore(t)
	mustRegister(t, src, "good-1", []float32{1, 0})
	mustRegister(t, src, "good-2", []float32{0, 1})

	var buf bytes.Buffer
	if err := src.WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	// A destination store already holding a 3-dimensional record rejects
	// the whole 2-dimensional snapshot without importing anything.
	dst, _ := newStore(t)
	mustRegister(t, dst, "existing", []float32{1, 0, 0})

	err := dst.ImportSnapshot(ctx, bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, voiceprint.ErrInvalidEmbedding) {
		t.Fatalf("ImportSnapshot = %v, want ErrInvalidEmbedding", err)
	}
	if dst.Count() != 1 {
		t.Fatalf("partial import: Count = %d, want 1", dst.Count())
	}
}

func TestSaveAndLoadSnapshotFile(t *testing.T) {
	ctx := context.Background()
	src, _ := newStore(t)
	mustRegister(t, src, "alice", []float32{1, 0})

	path := filepath.Join(t.TempDir(), "backups", "store.vpsn")
	if err := src.SaveSnapshotFile(path); err != nil {
		t.Fatalf("SaveSnapshotFile: %v", err)
	}

	// No stray temp files next to the snapshot.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("snapshot dir has %d entries, want 1", len(entries))
	}

	dst, _ := newStore(t)
	if err := dst.LoadSnapshotFile(ctx, path); err != nil {
		t.Fatalf("LoadSnapshotFile: %v", err)
	}
	if _, ok := dst.Get("alice"); !ok {
		t.Fatal("alice missing after load")
	}
}

func TestExportImportViaFileStore(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	src, _ := newStore(t)
	mustRegister(t, src, "alice", []float32{1, 0})
	if err := src.ExportTo(ctx, fs, "snapshots/latest.vpsn"); err != nil {
		t.Fatalf("ExportTo: %v", err)
	}

	dst, _ := newStore(t)
	if err := dst.ImportFrom(ctx, fs, "snapshots/latest.vpsn"); err != nil {
		t.Fatalf("ImportFrom: %v", err)
	}
	if dst.Count() != 1 {
		t.Fatalf("Count = %d, want 1", dst.Count())
	}
}

func TestEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	src, _ := newStore(t)

	var buf bytes.Buffer
	if err := src.WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	dst, _ := newStore(t)
	if err := dst.ImportSnapshot(ctx, &buf); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if dst.Count() != 0 {
		t.Fatalf("Count = %d, want 0", dst.Count())
	}
}
