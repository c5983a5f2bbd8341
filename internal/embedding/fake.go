package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Deterministic returns a hash-based Generator for tests: no network calls,
// stable output for a given input, matching shape-compatible vectors.
// Mirrors the reference corpus's deterministicEmbedder test double.
func Deterministic() Generator {
	return deterministicGenerator{}
}

type deterministicGenerator struct{}

func (deterministicGenerator) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	return hashVector(text), nil
}

func (g deterministicGenerator) GenerateBatchEmbeddings(_ context.Context, texts []string, _ int) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	return out, nil
}

// hashVector builds a deterministic vector from overlapping 3-grams of text,
// hashed into Dimension buckets with FNV-1a and L2-normalized.
func hashVector(text string) []float32 {
	vec := make([]float32, Dimension)
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return vec
	}
	runes := []rune(text)
	n := 3
	if len(runes) < n {
		n = len(runes)
	}
	for i := 0; i+n <= len(runes); i++ {
		gram := string(runes[i : i+n])
		h := fnv.New32a()
		_, _ = h.Write([]byte(gram))
		idx := int(h.Sum32()) % Dimension
		if idx < 0 {
			idx += Dimension
		}
		vec[idx]++
	}
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vec
	}
	norm := float32(1.0 / math.Sqrt(sumSquares))
	for i := range vec {
		vec[i] *= norm
	}
	return vec
}
