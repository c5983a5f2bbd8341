package embedding

import (
	"context"
	"testing"
)

func TestDeterministic_OrderPreservedAndStable(t *testing.T) {
	gen := Deterministic()
	ctx := context.Background()

	texts := []string{"alpha beta gamma", "delta epsilon", "alpha beta gamma"}
	out, err := gen.GenerateBatchEmbeddings(ctx, texts, 2)
	if err != nil {
		t.Fatalf("GenerateBatchEmbeddings: %v", err)
	}
	if len(out) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(out))
	}
	for _, v := range out {
		if len(v) != Dimension {
			t.Fatalf("expected dimension %d, got %d", Dimension, len(v))
		}
	}
	// Same text must embed identically regardless of batch position.
	for i := range out[0] {
		if out[0][i] != out[2][i] {
			t.Fatalf("expected identical vectors for identical input text at index %d", i)
		}
	}
}

func TestDeterministic_EmptyTextYieldsZeroVector(t *testing.T) {
	v, err := Deterministic().GenerateEmbedding(context.Background(), "")
	if err != nil {
		t.Fatalf("GenerateEmbedding: %v", err)
	}
	for _, f := range v {
		if f != 0 {
			t.Fatalf("expected zero vector for empty text")
		}
	}
}
