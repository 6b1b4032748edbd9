package voiceprint

import (
	"context"
	"errors"
	"fmt"
)

// Coordinator applies registration or identification across an ordered
// sequence of inputs, collecting a per-item outcome instead of aborting the
// whole batch on the first failure. A batch of 100 registrations with one
// malformed item still completes the other 99.
//
// Items are processed sequentially against the store; the coordinator never
// retries a failed item — retry policy belongs to the caller.
type Coordinator struct {
	store     *Store
	extractor Extractor // optional; required for items carrying raw audio
}

// NewCoordinator creates a Coordinator. extractor may be nil when every
// batch item carries a precomputed embedding.
func NewCoordinator(store *Store, extractor Extractor) *Coordinator {
	return &Coordinator{store: store, extractor: extractor}
}

// BatchItem is one input of a batch operation. Either Embedding is set, or
// Audio is set and the coordinator's Extractor reduces it to an embedding.
type BatchItem struct {
	// SpeakerID / SpeakerName / SourceRef describe the enrollment for
	// RegisterAll. IdentifyAll ignores them.
	SpeakerID   string
	SpeakerName string
	SourceRef   string

	// ModelTag overrides the extractor's model tag. Required when the
	// item carries a precomputed Embedding and no extractor is
	// configured.
	ModelTag string

	// Embedding is the precomputed vector for this item, if any.
	Embedding []float32

	// Audio holds raw PCM samples to be reduced by the Extractor when
	// Embedding is nil.
	Audio []float32

	// Err marks an item that already failed upstream, for example an
	// unreadable input file. The coordinator records it as the item's
	// outcome without touching the store.
	Err error
}

// Outcome is the per-item result of a batch operation.
type Outcome struct {
	// Index is the item's position in the input sequence.
	Index int

	// SpeakerID echoes the item's id (registration) or the matched id
	// (identification hit).
	SpeakerID string

	// Record is the enrolled record for a successful registration.
	Record *Record

	// Match is the identification result; nil with a nil Err means the
	// legitimate "no match above threshold" negative.
	Match *Match

	// Err classifies the failure, wrapping one of this package's
	// sentinels. Nil on success.
	Err error
}

// Report aggregates the outcomes of one batch operation.
type Report struct {
	// Outcomes holds one entry per processed item, in input order. When
	// the batch is cancelled early, items after the cancellation point
	// are absent.
	Outcomes []Outcome

	// Failed counts outcomes with a non-nil Err.
	Failed int
}

// RegisterAll registers every item in order. The returned error is non-nil
// only when ctx is cancelled between items; completed registrations stay
// registered and appear in the report either way.
func (c *Coordinator) RegisterAll(ctx context.Context, items []BatchItem) (*Report, error) {
	report := &Report{Outcomes: make([]Outcome, 0, len(items))}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		out := Outcome{Index: i, SpeakerID: item.SpeakerID}
		emb, tag, err := c.resolve(ctx, item)
		if err != nil {
			out.Err = err
		} else {
			rec, err := c.store.Register(ctx, Registration{
				SpeakerID:   item.SpeakerID,
				SpeakerName: item.SpeakerName,
				Embedding:   emb,
				ModelTag:    tag,
				SourceRef:   item.SourceRef,
			})
			if err != nil {
				out.Err = err
			} else {
				out.Record = rec
			}
		}

		if out.Err != nil {
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, out)
	}
	return report, nil
}

// IdentifyAll identifies every item in order against the store using the
// given acceptance threshold. Cancellation semantics match RegisterAll.
func (c *Coordinator) IdentifyAll(ctx context.Context, items []BatchItem, threshold float32) (*Report, error) {
	report := &Report{Outcomes: make([]Outcome, 0, len(items))}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		out := Outcome{Index: i}
		emb, tag, err := c.resolve(ctx, item)
		if err != nil {
			out.Err = err
		} else {
			match, err := c.store.Identify(emb, tag, threshold)
			if err != nil {
				out.Err = err
			} else if match != nil {
				out.Match = match
				out.SpeakerID = match.SpeakerID
			}
		}

		if out.Err != nil {
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, out)
	}
	return report, nil
}

// resolve reduces an item to its embedding and model tag, extracting from
// raw audio when no precomputed embedding is present.
func (c *Coordinator) resolve(ctx context.Context, item BatchItem) ([]float32, string, error) {
	if item.Err != nil {
		return nil, "", item.Err
	}
	if item.Embedding != nil {
		tag := item.ModelTag
		if tag == "" && c.extractor != nil {
			tag = c.extractor.ModelTag()
		}
		if tag == "" {
			return nil, "", errors.New("voiceprint: batch item has no model tag")
		}
		return item.Embedding, tag, nil
	}

	if c.extractor == nil {
		return nil, "", errors.New("voiceprint: batch item carries audio but no extractor is configured")
	}
	emb, err := c.extractor.Extract(ctx, item.Audio)
	if err != nil {
		if !errors.Is(err, ErrExtraction) {
			err = fmt.Errorf("%w: %w", ErrExtraction, err)
		}
		return nil, "", err
	}
	tag := item.ModelTag
	if tag == "" {
		tag = c.extractor.ModelTag()
	}
	return emb, tag, nil
}
