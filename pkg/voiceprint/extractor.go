package voiceprint

import "context"

// Extractor converts raw audio samples into a fixed-length embedding vector.
//
// Implementations wrap external pretrained speaker-embedding models and are
// opaque to this package: extraction must be deterministic for identical
// input and model version, and failures should wrap ErrExtraction so batch
// processing can classify them. The store never retries extraction on the
// caller's behalf.
type Extractor interface {
	// Extract returns the embedding for the given PCM samples.
	Extract(ctx context.Context, samples []float32) ([]float32, error)

	// ModelTag identifies the model (and version) producing the
	// embeddings. It becomes the ModelTag of registered records.
	ModelTag() string

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}
