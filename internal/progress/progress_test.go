package progress

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "progress.db")
	tr, err := Open(dbPath, "scotus")
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestAddDocument_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	require.NoError(t, tr.AddDocument(ctx, "doc1", nil))
	require.NoError(t, tr.AddDocument(ctx, "doc1", nil), "re-adding an existing document should not error")

	pending, err := tr.PendingDocuments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestMarkCompleted_RemovesFromPendingAndMarksProcessed(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	require.NoError(t, tr.AddDocument(ctx, "doc1", nil))
	require.NoError(t, tr.MarkProcessing(ctx, "doc1"))
	require.NoError(t, tr.MarkCompleted(ctx, "doc1", 250*time.Millisecond))

	processed, err := tr.IsProcessed(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, processed)

	pending, err := tr.PendingDocuments(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestMarkFailed_ReappearsInPendingWithErrorInStatistics(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	require.NoError(t, tr.AddDocument(ctx, "doc1", nil))
	require.NoError(t, tr.MarkFailed(ctx, "doc1", "network timeout"))

	pending, err := tr.PendingDocuments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1, "failed document should reappear as pending")

	stats, err := tr.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Failed)
	require.Len(t, stats.FailedDocuments, 1)
	require.Equal(t, "network timeout", stats.FailedDocuments[0].Error)
}

func TestStatistics_ComputesSuccessRate(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, tr.AddDocument(ctx, id, nil))
	}
	require.NoError(t, tr.MarkCompleted(ctx, "a", time.Millisecond))
	require.NoError(t, tr.MarkCompleted(ctx, "b", time.Millisecond))
	require.NoError(t, tr.MarkCompleted(ctx, "c", time.Millisecond))
	require.NoError(t, tr.MarkFailed(ctx, "d", "boom"))

	stats, err := tr.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 75.0, stats.SuccessRate)
}

func TestResetProcessingStatus_RevertsStuckDocuments(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	require.NoError(t, tr.AddDocument(ctx, "doc1", nil))
	require.NoError(t, tr.MarkProcessing(ctx, "doc1"))

	n, err := tr.ResetProcessingStatus(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	pending, err := tr.PendingDocuments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1, "reset document should return to pending")
}

func TestStartRunAndEndRun_SnapshotsCounts(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	runID, err := tr.StartRun(ctx, "2024-01-01", "2024-01-31", map[string]any{"max_results": 10})
	require.NoError(t, err)

	require.NoError(t, tr.AddDocument(ctx, "doc1", nil))
	require.NoError(t, tr.MarkCompleted(ctx, "doc1", time.Millisecond))
	require.NoError(t, tr.EndRun(ctx, runID))

	runs, err := tr.RunHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, 1, runs[0].CompletedDocuments)
	require.NotNil(t, runs[0].CompletedAt)
}
