// Package embedding implements L6: fixed-dimension vector generation for
// chunk text, with batch splitting, retries, and per-item fallback so a
// single bad input never aborts a whole batch.
package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"governmentreporter/internal/observability"
)

// Dimension is the fixed embedding width the rest of the pipeline assumes.
const Dimension = 1536

const batchPause = 100 * time.Millisecond

// Generator produces embeddings for chunk text.
type Generator interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateBatchEmbeddings(ctx context.Context, texts []string, batchSize int) ([][]float32, error)
}

type openAIGenerator struct {
	client openai.Client
	model  string

	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// New constructs a Generator backed by the OpenAI embeddings endpoint.
func New(apiKey, model string) Generator {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &openAIGenerator{
		client:   openai.NewClient(option.WithAPIKey(apiKey)),
		model:    model,
		minDelay: 50 * time.Millisecond,
	}
}

func (g *openAIGenerator) rateLimitedCall(ctx context.Context, fn func() error) error {
	g.mu.Lock()
	elapsed := time.Since(g.lastCall)
	if elapsed < g.minDelay {
		g.mu.Unlock()
		select {
		case <-time.After(g.minDelay - elapsed):
		case <-ctx.Done():
			return ctx.Err()
		}
		g.mu.Lock()
	}
	g.lastCall = time.Now()
	g.mu.Unlock()
	return fn()
}

// GenerateEmbedding produces a single embedding, making up to three attempts
// (waiting 1s, then 2s, between them) before raising.
func (g *openAIGenerator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := retryWithBackoff(ctx, 3, time.Second, func() error {
		return g.rateLimitedCall(ctx, func() error {
			vecs, err := g.embedBatch(ctx, []string{text})
			if err != nil {
				return err
			}
			out = vecs[0]
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateBatchEmbeddings embeds texts in batches of batchSize (default 20).
// A batch that fails falls back to per-item calls; an item that still fails
// yields a zero vector in its slot rather than aborting the run. Output
// order always matches input order.
func (g *openAIGenerator) GenerateBatchEmbeddings(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 20
	}
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		var vecs [][]float32
		err := retryWithBackoff(ctx, 3, time.Second, func() error {
			return g.rateLimitedCall(ctx, func() error {
				v, err := g.embedBatch(ctx, batch)
				if err != nil {
					return err
				}
				vecs = v
				return nil
			})
		})
		if err != nil {
			// batch failed after retries: fall back to per-item calls
			vecs = make([][]float32, len(batch))
			for i, t := range batch {
				v, itemErr := g.GenerateEmbedding(ctx, t)
				if itemErr != nil {
					v = make([]float32, Dimension)
				}
				vecs[i] = v
			}
		}
		copy(out[start:end], vecs)

		if end < len(texts) {
			select {
			case <-time.After(batchPause):
			case <-ctx.Done():
				return out, ctx.Err()
			}
		}
	}
	return out, nil
}

func (g *openAIGenerator) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := g.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(g.model),
	})
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		out[i] = vec
	}
	return out, nil
}

func retryWithBackoff(ctx context.Context, maxTries int, initial time.Duration, fn func() error) error {
	delay := initial
	var lastErr error
	log := observability.LoggerWithTrace(ctx)
	for attempt := 1; attempt <= maxTries; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt).Msg("embedding_call_failed")
			if attempt == maxTries {
				break
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
			continue
		}
		return nil
	}
	return lastErr
}
