package voiceprint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/voiceid/pkg/kv"
)

// DefaultPrefix is the kv key prefix used when StoreOptions.Prefix is empty.
var DefaultPrefix = kv.Key{"vp"}

// Store is a persistent collection of voiceprint records.
//
// It keeps all records in memory for fast identification and mirrors every
// mutation into the kv backend before acknowledging it. Mutations are
// serialized against each other and against reads; read-only operations run
// concurrently with each other.
type Store struct {
	mu      sync.RWMutex
	backend kv.Store
	prefix  kv.Key

	records map[string]*Record
	order   []string // insertion order of the current in-memory state
	dim     int      // fixed by the first registration; 0 while empty
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Prefix is the kv key prefix under which all store entries live.
	// Defaults to DefaultPrefix.
	Prefix kv.Key
}

// Open creates a Store over the given backend and loads any previously
// persisted records. An empty backend yields an empty store.
//
// The backend location must be owned by exactly one Store instance; see the
// package documentation.
func Open(ctx context.Context, backend kv.Store, opts *StoreOptions) (*Store, error) {
	prefix := DefaultPrefix
	if opts != nil && len(opts.Prefix) > 0 {
		prefix = opts.Prefix
	}
	s := &Store{
		backend: backend,
		prefix:  prefix,
		records: make(map[string]*Record),
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Registration is the input to Register.
type Registration struct {
	// SpeakerID is the unique identifier to enroll. Required.
	SpeakerID string

	// SpeakerName is the display name. Defaults to SpeakerID when empty.
	SpeakerName string

	// Embedding is the voiceprint vector. Required; validated at
	// ingestion (non-empty, finite, non-zero, store dimensionality).
	Embedding []float32

	// ModelTag names the extractor model that produced the embedding.
	// Required.
	ModelTag string

	// SourceRef is optional provenance (e.g., the source audio path).
	SourceRef string
}

// Register enrolls a speaker, durably persisting the updated collection
// before returning. Registering an existing SpeakerID replaces the whole
// record (last-write-wins) with a fresh RegisteredAt.
//
// The first registration fixes the store-wide embedding dimensionality;
// later registrations must match it or fail with ErrInvalidEmbedding.
// On ErrPersistence the in-memory state is left exactly as it was before
// the call.
func (s *Store) Register(ctx context.Context, reg Registration) (*Record, error) {
	if reg.SpeakerID == "" {
		return nil, errors.New("voiceprint: empty speaker id")
	}
	if reg.ModelTag == "" {
		return nil, errors.New("voiceprint: empty model tag")
	}
	name := reg.SpeakerName
	if name == "" {
		name = reg.SpeakerID
	}

	emb := make([]float32, len(reg.Embedding))
	copy(emb, reg.Embedding)

	rec := &Record{
		SpeakerID:    reg.SpeakerID,
		SpeakerName:  name,
		Embedding:    emb,
		ModelTag:     reg.ModelTag,
		SourceRef:    reg.SourceRef,
		RegisteredAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.putLocked(ctx, rec); err != nil {
		return nil, err
	}
	cp := rec.clone()
	return &cp, nil
}

// putLocked validates rec, persists it together with the updated index, and
// commits it to memory. The durable write happens first, so a failed write
// leaves the in-memory state untouched. Callers must hold s.mu.
func (s *Store) putLocked(ctx context.Context, rec *Record) error {
	if err := validateEmbedding(rec.Embedding); err != nil {
		return err
	}
	if s.dim != 0 && len(rec.Embedding) != s.dim {
		return fmt.Errorf("%w: dimension %d does not match store dimension %d",
			ErrInvalidEmbedding, len(rec.Embedding), s.dim)
	}

	newOrder := s.order
	if _, exists := s.records[rec.SpeakerID]; !exists {
		newOrder = make([]string, 0, len(s.order)+1)
		newOrder = append(newOrder, s.order...)
		newOrder = append(newOrder, rec.SpeakerID)
	}

	meta := recordMeta{
		SpeakerID:    rec.SpeakerID,
		SpeakerName:  rec.SpeakerName,
		ModelTag:     rec.ModelTag,
		SourceRef:    rec.SourceRef,
		RegisteredAt: rec.RegisteredAt.UnixNano(),
		Dim:          len(rec.Embedding),
	}
	metaBytes, err := msgpack.Marshal(meta)
	if err != nil {
		return fmt.Errorf("voiceprint: encode record: %w", err)
	}
	idsBytes, err := msgpack.Marshal(newOrder)
	if err != nil {
		return fmt.Errorf("voiceprint: encode index: %w", err)
	}

	batch := kv.Batch{Set: []kv.Entry{
		{Key: idsKey(s.prefix), Value: idsBytes},
		{Key: recordKey(s.prefix, rec.SpeakerID), Value: metaBytes},
		{Key: embeddingKey(s.prefix, rec.SpeakerID), Value: encodeEmbedding(rec.Embedding)},
	}}
	if err := s.backend.Apply(ctx, batch); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.records[rec.SpeakerID] = rec
	s.order = newOrder
	if s.dim == 0 {
		s.dim = len(rec.Embedding)
	}
	return nil
}

// Unregister removes a speaker, durably persisting the updated collection
// before returning. Returns ErrNotFound if the id is not enrolled, so
// callers can distinguish "removed" from "already absent".
func (s *Store) Unregister(ctx context.Context, speakerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[speakerID]; !ok {
		return ErrNotFound
	}

	newOrder := make([]string, 0, len(s.order)-1)
	for _, id := range s.order {
		if id != speakerID {
			newOrder = append(newOrder, id)
		}
	}
	idsBytes, err := msgpack.Marshal(newOrder)
	if err != nil {
		return fmt.Errorf("voiceprint: encode index: %w", err)
	}

	batch := kv.Batch{
		Set: []kv.Entry{{Key: idsKey(s.prefix), Value: idsBytes}},
		Delete: []kv.Key{
			recordKey(s.prefix, speakerID),
			embeddingKey(s.prefix, speakerID),
		},
	}
	if err := s.backend.Apply(ctx, batch); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	delete(s.records, speakerID)
	s.order = newOrder
	if len(s.records) == 0 {
		// An emptied store accepts any dimensionality again.
		s.dim = 0
	}
	return nil
}

// Get returns a copy of the record for the given id, or false if absent.
func (s *Store) Get(speakerID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[speakerID]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// List returns a snapshot of all records in insertion order of the current
// in-memory state. Later mutations do not affect the returned slice.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].clone())
	}
	return out
}

// Count returns the number of enrolled speakers.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dimension returns the store-wide embedding dimensionality, or 0 while the
// store is empty.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Reload replaces the in-memory state with the persisted representation.
// The speaker-id index is authoritative; entries not referenced by it are
// ignored.
func (s *Store) Reload(ctx context.Context) error {
	idsBytes, err := s.backend.Get(ctx, idsKey(s.prefix))
	if errors.Is(err, kv.ErrNotFound) {
		s.mu.Lock()
		s.records = make(map[string]*Record)
		s.order = nil
		s.dim = 0
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read index: %w", ErrPersistence, err)
	}

	var ids []string
	if err := msgpack.Unmarshal(idsBytes, &ids); err != nil {
		return fmt.Errorf("%w: decode index: %w", ErrPersistence, err)
	}

	records := make(map[string]*Record, len(ids))
	dim := 0
	for _, id := range ids {
		metaBytes, err := s.backend.Get(ctx, recordKey(s.prefix, id))
		if err != nil {
			return fmt.Errorf("%w: read record %q: %w", ErrPersistence, id, err)
		}
		var meta recordMeta
		if err := msgpack.Unmarshal(metaBytes, &meta); err != nil {
			return fmt.Errorf("%w: decode record %q: %w", ErrPersistence, id, err)
		}
		payload, err := s.backend.Get(ctx, embeddingKey(s.prefix, id))
		if err != nil {
			return fmt.Errorf("%w: read embedding %q: %w", ErrPersistence, id, err)
		}
		emb, err := decodeEmbedding(payload)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		records[id] = &Record{
			SpeakerID:    meta.SpeakerID,
			SpeakerName:  meta.SpeakerName,
			Embedding:    emb,
			ModelTag:     meta.ModelTag,
			SourceRef:    meta.SourceRef,
			RegisteredAt: time.Unix(0, meta.RegisteredAt),
		}
		if dim == 0 {
			dim = len(emb)
		}
	}

	s.mu.Lock()
	s.records = records
	s.order = ids
	s.dim = dim
	s.mu.Unlock()
	return nil
}

// Flush rewrites the full persisted representation from the in-memory state
// in one atomic batch, removing any persisted record no longer present in
// memory. Normal mutations persist incrementally, so Flush is only needed
// after bulk operations such as a snapshot import.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idsBytes, err := msgpack.Marshal(s.order)
	if err != nil {
		return fmt.Errorf("voiceprint: encode index: %w", err)
	}
	batch := kv.Batch{Set: []kv.Entry{{Key: idsKey(s.prefix), Value: idsBytes}}}

	for _, id := range s.order {
		rec := s.records[id]
		meta := recordMeta{
			SpeakerID:    rec.SpeakerID,
			SpeakerName:  rec.SpeakerName,
			ModelTag:     rec.ModelTag,
			SourceRef:    rec.SourceRef,
			RegisteredAt: rec.RegisteredAt.UnixNano(),
			Dim:          len(rec.Embedding),
		}
		metaBytes, err := msgpack.Marshal(meta)
		if err != nil {
			return fmt.Errorf("voiceprint: encode record: %w", err)
		}
		batch.Set = append(batch.Set,
			kv.Entry{Key: recordKey(s.prefix, id), Value: metaBytes},
			kv.Entry{Key: embeddingKey(s.prefix, id), Value: encodeEmbedding(rec.Embedding)},
		)
	}

	// Collect persisted records that no longer exist in memory.
	recPrefix := s.prefix.Child("rec")
	for entry, err := range s.backend.List(ctx, recPrefix) {
		if err != nil {
			return fmt.Errorf("%w: scan records: %w", ErrPersistence, err)
		}
		id := strings.Join(entry.Key[len(recPrefix):], string(kv.Separator))
		if _, ok := s.records[id]; !ok {
			batch.Delete = append(batch.Delete,
				recordKey(s.prefix, id),
				embeddingKey(s.prefix, id),
			)
		}
	}

	if err := s.backend.Apply(ctx, batch); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
