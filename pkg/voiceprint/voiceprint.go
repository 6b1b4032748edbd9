// Package voiceprint implements a persistent speaker identity store:
// enrolled speaker embeddings with unique identifiers, durable storage,
// and nearest-match identification under a caller-supplied threshold.
//
// # Architecture
//
//	audio → Extractor.Extract → embedding ─┬→ Store.Register   (write path)
//	                                       └→ Store.Identify   (read path)
//
// The [Store] owns all records and their persisted representation, layered
// over a [kv.Store] (badger for durable deployments, memory for tests).
// Every mutation is committed as one atomic kv batch before the in-memory
// state is updated; a failed commit leaves both exactly as they were, so
// memory and disk never diverge.
//
// Embedding extraction is an external concern behind the [Extractor]
// interface. Records carry the model tag of the extractor that produced
// them, and identification never compares embeddings across model tags:
// vectors from different embedding spaces produce meaningless scores.
//
// # Deployment constraint
//
// A persisted location is exclusively owned by a single Store instance.
// Pointing two stores at the same backend directory concurrently is not
// detected and corrupts the index; arrange ownership at deployment time.
package voiceprint

import (
	"time"
)

// Record is an enrolled voiceprint: one speaker identity with its embedding.
type Record struct {
	// SpeakerID uniquely identifies the speaker within a store.
	SpeakerID string

	// SpeakerName is a human-readable label. Names may repeat across
	// records; only SpeakerID is unique.
	SpeakerName string

	// Embedding is the enrolled vector. It is immutable once stored:
	// re-registering a speaker replaces the whole record.
	Embedding []float32

	// ModelTag identifies the extractor model that produced the embedding.
	// Records are only ever compared against queries with the same tag.
	ModelTag string

	// SourceRef records where the embedding came from (e.g., the
	// originating audio path). Informational only.
	SourceRef string

	// RegisteredAt is set when the record is created and never mutated.
	RegisteredAt time.Time
}

// clone returns a deep copy so callers can never mutate store state through
// a returned record.
func (r *Record) clone() Record {
	cp := *r
	cp.Embedding = make([]float32, len(r.Embedding))
	copy(cp.Embedding, r.Embedding)
	return cp
}

// Match is a successful identification result.
type Match struct {
	// SpeakerID is the identifier of the best-scoring record.
	SpeakerID string

	// SpeakerName is the display name of the matched record.
	SpeakerName string

	// Score is the cosine similarity between the query and the matched
	// embedding, in [-1, 1].
	Score float32
}
