package voiceprint

import "errors"

// Error taxonomy. Every failure surfaced by this package wraps one of these
// sentinels, so callers can classify outcomes with errors.Is without
// inspecting messages.
var (
	// ErrInvalidEmbedding is returned when an embedding is rejected at
	// ingestion: empty, containing NaN/Inf components, all-zero, or not
	// matching the store's fixed dimensionality.
	ErrInvalidEmbedding = errors.New("voiceprint: invalid embedding")

	// ErrDimensionMismatch is returned when two vectors of different
	// lengths are compared.
	ErrDimensionMismatch = errors.New("voiceprint: dimension mismatch")

	// ErrDegenerateVector is returned when a zero-magnitude vector reaches
	// a similarity computation. This is never silently treated as
	// similarity 0 — it signals a corrupt or unextracted embedding.
	ErrDegenerateVector = errors.New("voiceprint: zero-magnitude vector")

	// ErrNotFound is returned by Unregister for an id that is not
	// enrolled, so callers can distinguish "removed" from "already absent".
	ErrNotFound = errors.New("voiceprint: speaker not found")

	// ErrNoCandidates is returned by Identify when no record shares the
	// query's model tag. Distinct from a below-threshold miss, which is a
	// legitimate negative outcome, not an error.
	ErrNoCandidates = errors.New("voiceprint: no candidates for model tag")

	// ErrInvalidThreshold is returned when an acceptance threshold lies
	// outside [-1, 1].
	ErrInvalidThreshold = errors.New("voiceprint: threshold out of range")

	// ErrPersistence wraps backend errors from a failed durable write or
	// read. After a mutation fails with ErrPersistence the in-memory
	// state is unchanged from the pre-call state.
	ErrPersistence = errors.New("voiceprint: persistence failure")

	// ErrExtraction classifies failures of an external Extractor.
	ErrExtraction = errors.New("voiceprint: extraction failure")
)
