// Package kv provides a key-value store interface with hierarchical path-based
// keys. Keys are represented as string slices (e.g., ["vp", "rec", "u1"]) and
// encoded with ':' as the segment separator.
//
// The package includes a BadgerDB-backed implementation for durable storage and
// an in-memory implementation for testing. Both apply a [Batch] (sets plus
// deletes) as a single atomic unit, which callers use to keep multi-key
// records consistent under crashes.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("kv: not found")
)

// Separator joins key segments in the encoded representation.
//
// Only the final segment of a key may contain the separator character:
// encoded keys are compared as whole strings, so a trailing opaque segment
// (such as a caller-supplied identifier) stays unambiguous as long as the
// leading segments are fixed. Keys with a separator in a non-final segment
// will collide.
const Separator byte = ':'

// Key is a hierarchical path represented as a slice of string segments.
// For example, Key{"vp", "rec", "u1"} encodes to "vp:rec:u1".
type Key []string

// String returns the encoded form of the key.
func (k Key) String() string {
	return strings.Join(k, string(Separator))
}

// Child returns a new key with extra segments appended. The receiver is not
// modified.
func (k Key) Child(segments ...string) Key {
	out := make(Key, 0, len(k)+len(segments))
	out = append(out, k...)
	out = append(out, segments...)
	return out
}

// encode converts a Key to its stored byte representation.
func encode(k Key) []byte {
	n := 0
	for i, seg := range k {
		if i > 0 {
			n++
		}
		n += len(seg)
	}
	buf := make([]byte, 0, n)
	for i, seg := range k {
		if i > 0 {
			buf = append(buf, Separator)
		}
		buf = append(buf, seg...)
	}
	return buf
}

// decode converts a stored byte representation back to a Key.
func decode(b []byte) Key {
	parts := strings.Split(string(b), string(Separator))
	return Key(parts)
}

// Entry is a key-value pair returned by List and carried in a Batch.
type Entry struct {
	Key   Key
	Value []byte
}

// Batch is a group of mutations applied atomically by [Store.Apply].
// Deletes are applied after sets, so a key appearing in both ends up deleted.
type Batch struct {
	Set    []Entry
	Delete []Key
}

// Empty reports whether the batch contains no mutations.
func (b *Batch) Empty() bool {
	return len(b.Set) == 0 && len(b.Delete) == 0
}

// Store is the interface for a key-value store with path-based keys.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair. Overwrites any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// List iterates over all entries whose key starts with the given prefix.
	// An empty prefix scans the whole store. The iteration order is
	// lexicographic by encoded key.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// Apply commits all mutations in the batch as one atomic unit: either
	// every set and delete is durably applied, or none of them are.
	Apply(ctx context.Context, batch Batch) error

	// Close releases any resources held by the store.
	Close() error
}
