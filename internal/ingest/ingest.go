// Package ingest implements L10: the template-method batch driver that
// turns a date range into stored, searchable vectors. A Runner is generic
// over a Source (SCOTUS or Executive Order); all progress tracking,
// batching, embedding, and upsert behavior is shared.
package ingest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"governmentreporter/internal/embedding"
	"governmentreporter/internal/observability"
	"governmentreporter/internal/payload"
	"governmentreporter/internal/perf"
	"governmentreporter/internal/progress"
	"governmentreporter/internal/vectorstore"
)

// SourceDocument is one document ID a Source has discovered, plus any
// listing-level metadata worth seeding the progress row with.
type SourceDocument struct {
	ID       string
	Metadata map[string]any
}

// Source abstracts the document-type-specific half of the pipeline: how to
// discover document IDs for a run, and how to turn one ID into chunk
// payloads (fetch content, validate, chunk, extract LLM fields).
type Source interface {
	// FetchDocumentIDs discovers every document in scope for this run.
	FetchDocumentIDs(ctx context.Context) ([]SourceDocument, error)
	// BuildChunks fetches id's content and returns its chunk payloads,
	// ready for embedding. An empty, nil-error result means "nothing to
	// store" (e.g. a document with no extractable text).
	BuildChunks(ctx context.Context, id string) ([]payload.Chunk, error)
}

// VectorWriter is the subset of *vectorstore.Store the ingester needs,
// narrowed to an interface so batches can be driven against a fake store
// in tests without a live Qdrant instance.
type VectorWriter interface {
	UpsertBatch(ctx context.Context, points []vectorstore.Point) error
}

// Runner drives Source through the shared reset -> discover -> batch
// (process -> embed -> upsert) -> report lifecycle.
type Runner struct {
	DocumentType string
	Collection   string
	BatchSize    int
	DryRun       bool
	ProgressOut  io.Writer
	// Concurrency bounds how many documents within one batch are fetched,
	// chunked, and embedded in parallel. 0 or 1 processes the batch
	// sequentially.
	Concurrency int

	Source   Source
	Progress *progress.Tracker
	Embedder embedding.Generator
	Store    VectorWriter
	Monitor  *perf.Monitor
}

// Run executes one complete ingestion pass for the given date range.
func (r *Runner) Run(ctx context.Context, startDate, endDate string) error {
	log := observability.LoggerWithTrace(ctx)

	if _, err := r.Progress.ResetProcessingStatus(ctx); err != nil {
		return fmt.Errorf("reset processing status: %w", err)
	}

	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	runID, err := r.Progress.StartRun(ctx, startDate, endDate, map[string]any{"batch_size": batchSize})
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	docs, err := r.Source.FetchDocumentIDs(ctx)
	if err != nil {
		return fmt.Errorf("fetch document ids: %w", err)
	}
	for _, d := range docs {
		if err := r.Progress.AddDocument(ctx, d.ID, d.Metadata); err != nil {
			return fmt.Errorf("add document %s: %w", d.ID, err)
		}
	}

	pending, err := r.Progress.PendingDocuments(ctx, 0)
	if err != nil {
		return fmt.Errorf("pending documents: %w", err)
	}

	r.Monitor.Start()
	total := len(pending)
	processed := 0

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	for i := 0; i < len(pending); i += batchSize {
		end := i + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[i:end]

		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			mu          sync.Mutex
			batchPoints []vectorstore.Point
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, id := range batch {
			id := id
			g.Go(func() error {
				r.processSingleDocument(gctx, id, &batchPoints, &mu)
				return nil
			})
		}
		_ = g.Wait()
		processed += len(batch)
		if r.ProgressOut != nil {
			r.Monitor.PrintProgress(r.ProgressOut, processed, total, r.DocumentType)
		}

		if len(batchPoints) > 0 && !r.DryRun {
			if err := r.Store.UpsertBatch(ctx, batchPoints); err != nil {
				log.Error().Err(err).Int("batch_points", len(batchPoints)).Msg("batch_upsert_failed")
			}
		}
	}

	if r.ProgressOut != nil {
		r.Monitor.PrintProgress(r.ProgressOut, total, total, r.DocumentType)
	}

	if err := r.Progress.EndRun(ctx, runID); err != nil {
		return fmt.Errorf("end run: %w", err)
	}
	return nil
}

// processSingleDocument marks id processing, builds and embeds its chunks,
// and appends the resulting points to batchPoints under mu (processed
// concurrently with its batch siblings, up to Runner.Concurrency at a
// time). Any failure marks the document failed and moves on without
// aborting the batch.
func (r *Runner) processSingleDocument(ctx context.Context, id string, batchPoints *[]vectorstore.Point, mu *sync.Mutex) {
	log := observability.LoggerWithTrace(ctx)
	start := time.Now()

	if err := r.Progress.MarkProcessing(ctx, id); err != nil {
		log.Error().Err(err).Str("document_id", id).Msg("mark_processing_failed")
	}

	chunks, err := r.Source.BuildChunks(ctx, id)
	if err != nil {
		r.failDocument(ctx, id, err)
		return
	}
	if len(chunks) == 0 {
		r.failDocument(ctx, id, fmt.Errorf("no chunks generated"))
		return
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := r.Embedder.GenerateBatchEmbeddings(ctx, texts, 0)
	if err != nil {
		r.failDocument(ctx, id, err)
		return
	}

	ingestedAt := time.Now().Unix()
	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		meta := c.Metadata
		meta["text"] = c.Text
		meta["document_id"] = id
		meta["ingested_at"] = ingestedAt
		points[i] = vectorstore.Point{ID: c.ID, Vector: embeddings[i], Payload: meta}
	}
	mu.Lock()
	*batchPoints = append(*batchPoints, points...)
	mu.Unlock()

	elapsed := time.Since(start)
	if err := r.Progress.MarkCompleted(ctx, id, elapsed); err != nil {
		log.Error().Err(err).Str("document_id", id).Msg("mark_completed_failed")
	}
	r.Monitor.RecordSuccess(elapsed)
}

func (r *Runner) failDocument(ctx context.Context, id string, err error) {
	observability.LoggerWithTrace(ctx).Warn().Err(err).Str("document_id", id).Msg("document_processing_failed")
	if markErr := r.Progress.MarkFailed(ctx, id, err.Error()); markErr != nil {
		observability.LoggerWithTrace(ctx).Error().Err(markErr).Str("document_id", id).Msg("mark_failed_failed")
	}
	r.Monitor.RecordFailure()
}
