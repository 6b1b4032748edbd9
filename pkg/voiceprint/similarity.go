package voiceprint

import "math"

// Cosine computes the cosine similarity between two vectors: the dot product
// divided by the product of their magnitudes, clamped to [-1, 1] to absorb
// floating-point error.
//
// Returns ErrDimensionMismatch if the vectors have different lengths and
// ErrDegenerateVector if either vector has zero magnitude.
func Cosine(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrDegenerateVector
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return float32(sim), nil
}

// validateEmbedding checks an embedding at ingestion: it must be non-empty,
// all components finite, and not the zero vector.
func validateEmbedding(emb []float32) error {
	if len(emb) == 0 {
		return ErrInvalidEmbedding
	}
	zero := true
	for _, v := range emb {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return ErrInvalidEmbedding
		}
		if v != 0 {
			zero = false
		}
	}
	if zero {
		// A zero vector has no direction; it can never be identified.
		return ErrInvalidEmbedding
	}
	return nil
}
