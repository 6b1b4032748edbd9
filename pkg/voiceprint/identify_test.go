package voiceprint_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/haivivi/voiceid/pkg/voiceprint"
)

func TestIdentifyBestMatch(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	register := func(id string, emb []float32) {
		t.Helper()
		if _, err := s.Register(ctx, voiceprint.Registration{
			SpeakerID: id, Embedding: emb, ModelTag: "m1",
		}); err != nil {
			t.Fatalf("Register(%s): %v", id, err)
		}
	}
	register("u1", []float32{1, 0, 0})
	register("u2", []float32{0, 1, 0})

	match, err := s.Identify([]float32{1, 0, 0.01}, "m1", 0.9)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if match == nil || match.SpeakerID != "u1" {
		t.Fatalf("match = %+v, want u1", match)
	}
	if math.Abs(float64(match.Score)-1) > 1e-3 {
		t.Fatalf("score = %v, want ~1.0", match.Score)
	}
}

func TestIdentifyBelowThreshold(t *testing.T) {
	s, _ := newStore(t)
	mustRegister(t, s, "u1", []float32{1, 0, 0})

	// Orthogonal query scores 0, below any positive threshold.
	match, err := s.Identify([]float32{0, 1, 0}, "m1", 0.5)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if match != nil {
		t.Fatalf("match = %+v, want nil (legitimate negative)", match)
	}
}

func TestIdentifyNoCandidates(t *testing.T) {
	s, _ := newStore(t)

	// Empty store.
	if _, err := s.Identify([]float32{1, 0}, "m1", 0.5); !errors.Is(err, voiceprint.ErrNoCandidates) {
		t.Fatalf("empty store: err = %v, want ErrNoCandidates", err)
	}

	// Populated store, but no record with the requested model tag.
	mustRegister(t, s, "u1", []float32{1, 0})
	if _, err := s.Identify([]float32{1, 0}, "other-model", 0.5); !errors.Is(err, voiceprint.ErrNoCandidates) {
		t.Fatalf("wrong tag: err = %v, want ErrNoCandidates", err)
	}
}

func TestIdentifyModelTagFilter(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, voiceprint.Registration{
		SpeakerID: "old", Embedding: []float32{1, 0}, ModelTag: "m1",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.Register(ctx, voiceprint.Registration{
		SpeakerID: "new", Embedding: []float32{1, 0}, ModelTag: "m2",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Only the m2 record is a candidate even though the m1 record has the
	// identical embedding.
	match, err := s.Identify([]float32{1, 0}, "m2", 0.5)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if match == nil || match.SpeakerID != "new" {
		t.Fatalf("match = %+v, want new", match)
	}
}

func TestIdentifyTieBreak(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	// Register in reverse order so the winner cannot be an artifact of
	// insertion order.
	for _, id := range []string{"B", "A"} {
		if _, err := s.Register(ctx, voiceprint.Registration{
			SpeakerID: id, Embedding: []float32{0, 0, 1}, ModelTag: "m1",
		}); err != nil {
			t.Fatalf("Register(%s): %v", id, err)
		}
	}

	match, err := s.Identify([]float32{0, 0, 1}, "m1", 0.5)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if match == nil || match.SpeakerID != "A" {
		t.Fatalf("match = %+v, want A (lexicographic tie-break)", match)
	}
}

func TestIdentifyInvalidThreshold(t *testing.T) {
	s, _ := newStore(t)
	mustRegister(t, s, "u1", []float32{1, 0})

	for _, th := range []float32{-1.01, 1.01, 2} {
		if _, err := s.Identify([]float32{1, 0}, "m1", th); !errors.Is(err, voiceprint.ErrInvalidThreshold) {
			t.Fatalf("threshold %v: err = %v, want ErrInvalidThreshold", th, err)
		}
	}

	// Boundary values are accepted.
	if _, err := s.Identify([]float32{1, 0}, "m1", -1); err != nil {
		t.Fatalf("threshold -1: %v", err)
	}
	if _, err := s.Identify([]float32{1, 0}, "m1", 1); err != nil {
		t.Fatalf("threshold 1: %v", err)
	}
}

func TestIdentifyQueryErrors(t *testing.T) {
	s, _ := newStore(t)
	mustRegister(t, s, "u1", []float32{1, 0, 0})

	if _, err := s.Identify([]float32{1, 0}, "m1", 0.5); !errors.Is(err, voiceprint.ErrDimensionMismatch) {
		t.Fatalf("short query: err = %v, want ErrDimensionMismatch", err)
	}
	if _, err := s.Identify([]float32{0, 0, 0}, "m1", 0.5); !errors.Is(err, voiceprint.ErrDegenerateVector) {
		t.Fatalf("zero query: err = %v, want ErrDegenerateVector", err)
	}
}
