package voiceprint_test

import (
	"errors"
	"math"
	"testing"

	"github.com/haivivi/voiceid/pkg/voiceprint"
)

func TestCosineIdentical(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.3, -0.7, 2.5},
		{1e-3, 1e-3, 1e-3, 1e-3},
	}
	for _, v := range vectors {
		got, err := voiceprint.Cosine(v, v)
		if err != nil {
			t.Fatalf("Cosine(%v, same): %v", v, err)
		}
		if math.Abs(float64(got)-1) > 1e-6 {
			t.Fatalf("Cosine(v, v) = %v, want 1", got)
		}
	}
}

func TestCosineSymmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 4}
	ab, err := voiceprint.Cosine(a, b)
	if err != nil {
		t.Fatalf("Cosine(a, b): %v", err)
	}
	ba, err := voiceprint.Cosine(b, a)
	if err != nil {
		t.Fatalf("Cosine(b, a): %v", err)
	}
	if ab != ba {
		t.Fatalf("Cosine not symmetric: %v vs %v", ab, ba)
	}
}

func TestCosineOrthogonalAndOpposite(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float32
	}{
		{[]float32{1, 0}, []float32{0, 1}, 0},
		{[]float32{1, 0}, []float32{-1, 0}, -1},
		{[]float32{2, 0}, []float32{5, 0}, 1},
	}
	for _, tt := range tests {
		got, err := voiceprint.Cosine(tt.a, tt.b)
		if err != nil {
			t.Fatalf("Cosine(%v, %v): %v", tt.a, tt.b, err)
		}
		if math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Fatalf("Cosine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := voiceprint.Cosine([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, voiceprint.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCosineDegenerate(t *testing.T) {
	tests := [][2][]float32{
		{{0, 0, 0}, {1, 2, 3}},
		{{1, 2, 3}, {0, 0, 0}},
		{{}, {}},
	}
	for _, tt := range tests {
		if _, err := voiceprint.Cosine(tt[0], tt[1]); !errors.Is(err, voiceprint.ErrDegenerateVector) {
			t.Fatalf("Cosine(%v, %v): expected ErrDegenerateVector, got %v", tt[0], tt[1], err)
		}
	}
}

func TestCosineClamped(t *testing.T) {
	// Near-parallel vectors can produce a raw value a hair above 1.
	a := []float32{0.1, 0.1, 0.1}
	b := []float32{0.1, 0.1, 0.1}
	got, err := voiceprint.Cosine(a, b)
	if err != nil {
		t.Fatalf("Cosine: %v", err)
	}
	if got > 1 || got < -1 {
		t.Fatalf("Cosine = %v, outside [-1, 1]", got)
	}
}
