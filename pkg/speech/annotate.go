package speech

import (
	"context"
	"errors"
	"fmt"

	"github.com/haivivi/voiceid/pkg/voiceprint"
)

// DefaultThreshold is the similarity score a voiceprint match must reach for
// a segment to be attributed to an enrolled speaker.
const DefaultThreshold float32 = 0.5

// AnnotateOptions configures speaker annotation.
type AnnotateOptions struct {
	// IdentifySpeakers enables voiceprint lookup per segment. When false,
	// Annotate returns the transcript unchanged.
	IdentifySpeakers bool

	// Threshold is the minimum similarity for a positive match. Defaults
	// to DefaultThreshold when 0.
	Threshold float32
}

// Annotator labels transcript segments with enrolled speakers by extracting
// a voiceprint from each segment's audio and identifying it against the
// store.
type Annotator struct {
	store     *voiceprint.Store
	extractor voiceprint.Extractor
}

// NewAnnotator creates an Annotator over the given store and extractor.
func NewAnnotator(store *voiceprint.Store, extractor voiceprint.Extractor) *Annotator {
	return &Annotator{store: store, extractor: extractor}
}

// Annotate returns a copy of the transcript with speaker labels filled in.
// audio[i] holds the PCM samples backing transcript[i]; the two slices must
// have equal length.
//
// Segments whose voice matches no enrolled speaker above the threshold, or
// for which no enrolled candidate exists, are labeled UnknownSpeaker rather
// than failing the whole transcript. Extraction failures fail the call.
func (a *Annotator) Annotate(ctx context.Context, transcript Transcript, audio [][]float32, opts AnnotateOptions) (Transcript, error) {
	out := make(Transcript, len(transcript))
	copy(out, transcript)
	if !opts.IdentifySpeakers {
		return out, nil
	}
	if a.extractor == nil {
		return nil, errors.New("speech: no extractor configured for speaker identification")
	}
	if len(audio) != len(transcript) {
		return nil, fmt.Errorf("speech: %d audio clips for %d segments", len(audio), len(transcript))
	}

	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		emb, err := a.extractor.Extract(ctx, audio[i])
		if err != nil {
			if !errors.Is(err, voiceprint.ErrExtraction) {
				err = fmt.Errorf("%w: %w", voiceprint.ErrExtraction, err)
			}
			return nil, fmt.Errorf("speech: segment %d: %w", i, err)
		}

		match, err := a.store.Identify(emb, a.extractor.ModelTag(), threshold)
		switch {
		case errors.Is(err, voiceprint.ErrNoCandidates):
			out[i].SpeakerName = UnknownSpeaker
		case err != nil:
			return nil, fmt.Errorf("speech: segment %d: %w", i, err)
		case match == nil:
			out[i].SpeakerName = UnknownSpeaker
		default:
			out[i].SpeakerID = match.SpeakerID
			out[i].SpeakerName = match.SpeakerName
			out[i].Score = match.Score
		}
	}
	return out, nil
}
