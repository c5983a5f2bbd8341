package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"governmentreporter/internal/payload"
	"governmentreporter/internal/perf"
	"governmentreporter/internal/progress"
	"governmentreporter/internal/vectorstore"
)

type fakeSource struct {
	ids    []SourceDocument
	chunks map[string][]payload.Chunk
	errFor map[string]error

	mu    sync.Mutex
	calls []string
}

func (f *fakeSource) FetchDocumentIDs(ctx context.Context) ([]SourceDocument, error) {
	return f.ids, nil
}

func (f *fakeSource) BuildChunks(ctx context.Context, id string) ([]payload.Chunk, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if err, ok := f.errFor[id]; ok {
		return nil, err
	}
	return f.chunks[id], nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func (fakeEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

type fakeStore struct {
	batches [][]vectorstore.Point
}

func (f *fakeStore) UpsertBatch(ctx context.Context, points []vectorstore.Point) error {
	f.batches = append(f.batches, points)
	return nil
}

func newTestRunner(t *testing.T, source Source, store *fakeStore, batchSize int) *Runner {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "progress.db")
	tr, err := progress.Open(dbPath, "test")
	if err != nil {
		t.Fatalf("open progress tracker: %v", err)
	}
	t.Cleanup(func() { tr.Close() })

	return &Runner{
		DocumentType: "test",
		Collection:   "test_collection",
		BatchSize:    batchSize,
		Source:       source,
		Progress:     tr,
		Embedder:     fakeEmbedder{},
		Store:        store,
		Monitor:      perf.NewMonitor(),
	}
}

func TestRun_UpsertsChunksForEachSuccessfulDocument(t *testing.T) {
	source := &fakeSource{
		ids: []SourceDocument{{ID: "doc1"}, {ID: "doc2"}},
		chunks: map[string][]payload.Chunk{
			"doc1": {{ID: "doc1_chunk_0", Text: "hello", Metadata: map[string]any{"section_label": "A"}}},
			"doc2": {{ID: "doc2_chunk_0", Text: "world", Metadata: map[string]any{"section_label": "B"}}},
		},
	}
	store := &fakeStore{}
	r := newTestRunner(t, source, store, 10)

	if err := r.Run(context.Background(), "2024-01-01", "2024-01-31"); err != nil {
		t.Fatalf("run: %v", err)
	}

	total := 0
	for _, b := range store.batches {
		total += len(b)
	}
	if total != 2 {
		t.Fatalf("expected 2 points upserted across batches, got %d", total)
	}

	stats, err := r.Progress.Statistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Completed != 2 {
		t.Fatalf("expected 2 completed documents, got %d", stats.Completed)
	}
}

func TestRun_FailedDocumentDoesNotAbortBatch(t *testing.T) {
	source := &fakeSource{
		ids: []SourceDocument{{ID: "doc1"}, {ID: "doc2"}},
		chunks: map[string][]payload.Chunk{
			"doc2": {{ID: "doc2_chunk_0", Text: "world", Metadata: map[string]any{"section_label": "B"}}},
		},
		errFor: map[string]error{"doc1": fmt.Errorf("fetch failed")},
	}
	store := &fakeStore{}
	r := newTestRunner(t, source, store, 10)

	if err := r.Run(context.Background(), "2024-01-01", "2024-01-31"); err != nil {
		t.Fatalf("run: %v", err)
	}

	stats, err := r.Progress.Statistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Completed != 1 || stats.Failed != 1 {
		t.Fatalf("expected 1 completed and 1 failed, got completed=%d failed=%d", stats.Completed, stats.Failed)
	}
}

func TestRun_EmptyChunksMarksDocumentFailed(t *testing.T) {
	source := &fakeSource{
		ids:    []SourceDocument{{ID: "doc1"}},
		chunks: map[string][]payload.Chunk{"doc1": nil},
	}
	store := &fakeStore{}
	r := newTestRunner(t, source, store, 10)

	if err := r.Run(context.Background(), "2024-01-01", "2024-01-31"); err != nil {
		t.Fatalf("run: %v", err)
	}

	stats, err := r.Progress.Statistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected document with no chunks to be marked failed, got %+v", stats)
	}
}

func TestRun_RespectsBatchSizeAcrossMultipleUpsertCalls(t *testing.T) {
	ids := make([]SourceDocument, 5)
	chunks := make(map[string][]payload.Chunk, 5)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("doc%d", i)
		ids[i] = SourceDocument{ID: id}
		chunks[id] = []payload.Chunk{{ID: id + "_chunk_0", Text: "text", Metadata: map[string]any{}}}
	}
	source := &fakeSource{ids: ids, chunks: chunks}
	store := &fakeStore{}
	r := newTestRunner(t, source, store, 2)

	if err := r.Run(context.Background(), "2024-01-01", "2024-01-31"); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(store.batches) != 3 {
		t.Fatalf("expected 3 upsert batches (2+2+1) for batch size 2 over 5 docs, got %d", len(store.batches))
	}
}

func TestRun_DryRunSkipsUpsert(t *testing.T) {
	source := &fakeSource{
		ids:    []SourceDocument{{ID: "doc1"}},
		chunks: map[string][]payload.Chunk{"doc1": {{ID: "doc1_chunk_0", Text: "x", Metadata: map[string]any{}}}},
	}
	store := &fakeStore{}
	r := newTestRunner(t, source, store, 10)
	r.DryRun = true

	if err := r.Run(context.Background(), "2024-01-01", "2024-01-31"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.batches) != 0 {
		t.Fatalf("expected no upserts in dry-run mode, got %d batches", len(store.batches))
	}

	stats, err := r.Progress.Statistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Completed != 1 {
		t.Fatalf("expected document still marked completed in dry-run, got %+v", stats)
	}
}
