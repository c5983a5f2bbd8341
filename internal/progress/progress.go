// Package progress implements L9: a SQLite-backed record of which
// documents have been ingested, so a batch run can be interrupted and
// resumed without re-processing (and re-billing the LLM for) documents
// already stored. One tracker is scoped to a single document type
// ("scotus" or "executive_order"), matching the reference schema's
// composite (document_id, document_type) key.
package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Status is a document's position in the ingestion pipeline.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Stats summarizes ingestion progress for one document type.
type Stats struct {
	DocumentType        string
	Total               int
	Completed           int
	Failed              int
	Pending             int
	Processing          int
	SuccessRate         float64
	AvgProcessingTimeMs *int64
	FailedDocuments     []FailedDocument
}

// FailedDocument is one entry in Stats.FailedDocuments.
type FailedDocument struct {
	DocumentID string
	Error      string
	FailedAt   string
}

// Run is one historical ingestion run's summary row.
type Run struct {
	RunID               int64
	DocumentType        string
	StartDate           string
	EndDate             string
	TotalDocuments      int
	CompletedDocuments  int
	FailedDocuments     int
	StartedAt           string
	CompletedAt         *string
	Parameters          string
}

// Tracker persists ingestion progress for one document type to a SQLite
// database, so `govreporter ingest` runs are safely resumable.
type Tracker struct {
	db           *sql.DB
	documentType string
}

// Open creates (if needed) the tracking tables at dbPath and returns a
// Tracker scoped to documentType (e.g. "scotus", "executive_order").
func Open(dbPath, documentType string) (*Tracker, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open progress db: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers

	t := &Tracker{db: db, documentType: documentType}
	if err := t.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

func (t *Tracker) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS document_progress (
			document_id TEXT NOT NULL,
			document_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			error_message TEXT,
			metadata TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			processing_time_ms INTEGER,
			PRIMARY KEY (document_id, document_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_status_type ON document_progress(document_type, status)`,
		`CREATE TABLE IF NOT EXISTS ingestion_runs (
			run_id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_type TEXT NOT NULL,
			start_date TEXT,
			end_date TEXT,
			total_documents INTEGER DEFAULT 0,
			completed_documents INTEGER DEFAULT 0,
			failed_documents INTEGER DEFAULT 0,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP,
			parameters TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := t.db.Exec(stmt); err != nil {
			return fmt.Errorf("init progress schema: %w", err)
		}
	}
	return nil
}

// StartRun records the start of a new ingestion run and returns its ID.
func (t *Tracker) StartRun(ctx context.Context, startDate, endDate string, parameters map[string]any) (int64, error) {
	params, err := json.Marshal(parameters)
	if err != nil {
		params = []byte("{}")
	}
	res, err := t.db.ExecContext(ctx,
		`INSERT INTO ingestion_runs (document_type, start_date, end_date, parameters) VALUES (?, ?, ?, ?)`,
		t.documentType, startDate, endDate, string(params),
	)
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return res.LastInsertId()
}

// EndRun stamps runID as completed and snapshots its final counts.
func (t *Tracker) EndRun(ctx context.Context, runID int64) error {
	_, err := t.db.ExecContext(ctx, `
		UPDATE ingestion_runs
		SET completed_at = CURRENT_TIMESTAMP,
			total_documents = (SELECT COUNT(*) FROM document_progress WHERE document_type = ?),
			completed_documents = (SELECT COUNT(*) FROM document_progress WHERE document_type = ? AND status = 'completed'),
			failed_documents = (SELECT COUNT(*) FROM document_progress WHERE document_type = ? AND status = 'failed')
		WHERE run_id = ?`,
		t.documentType, t.documentType, t.documentType, runID,
	)
	if err != nil {
		return fmt.Errorf("end run: %w", err)
	}
	return nil
}

// AddDocument registers documentID as pending, silently no-oping if it is
// already tracked (matching the reference tracker's insert-or-ignore).
func (t *Tracker) AddDocument(ctx context.Context, documentID string, metadata map[string]any) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		meta = []byte("{}")
	}
	_, err = t.db.ExecContext(ctx, `
		INSERT INTO document_progress (document_id, document_type, status, metadata)
		VALUES (?, ?, 'pending', ?)
		ON CONFLICT(document_id, document_type) DO NOTHING`,
		documentID, t.documentType, string(meta),
	)
	if err != nil {
		return fmt.Errorf("add document %s: %w", documentID, err)
	}
	return nil
}

// IsProcessed reports whether documentID has already completed successfully.
func (t *Tracker) IsProcessed(ctx context.Context, documentID string) (bool, error) {
	var status string
	err := t.db.QueryRowContext(ctx, `
		SELECT status FROM document_progress
		WHERE document_id = ? AND document_type = ? AND status = 'completed'`,
		documentID, t.documentType,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed %s: %w", documentID, err)
	}
	return true, nil
}

// MarkProcessing flags documentID as currently being worked on.
func (t *Tracker) MarkProcessing(ctx context.Context, documentID string) error {
	_, err := t.db.ExecContext(ctx, `
		UPDATE document_progress SET status = 'processing', updated_at = CURRENT_TIMESTAMP
		WHERE document_id = ? AND document_type = ?`,
		documentID, t.documentType,
	)
	if err != nil {
		return fmt.Errorf("mark processing %s: %w", documentID, err)
	}
	return nil
}

// MarkCompleted flags documentID as done, clearing any prior error and
// recording how long it took.
func (t *Tracker) MarkCompleted(ctx context.Context, documentID string, processingTime time.Duration) error {
	ms := processingTime.Milliseconds()
	_, err := t.db.ExecContext(ctx, `
		UPDATE document_progress
		SET status = 'completed', updated_at = CURRENT_TIMESTAMP, processing_time_ms = ?, error_message = NULL
		WHERE document_id = ? AND document_type = ?`,
		ms, documentID, t.documentType,
	)
	if err != nil {
		return fmt.Errorf("mark completed %s: %w", documentID, err)
	}
	return nil
}

// MarkFailed flags documentID as failed with the given error description.
func (t *Tracker) MarkFailed(ctx context.Context, documentID, errMsg string) error {
	_, err := t.db.ExecContext(ctx, `
		UPDATE document_progress
		SET status = 'failed', error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE document_id = ? AND document_type = ?`,
		errMsg, documentID, t.documentType,
	)
	if err != nil {
		return fmt.Errorf("mark failed %s: %w", documentID, err)
	}
	return nil
}

// PendingDocuments returns IDs still pending or previously failed, oldest
// first, optionally capped at limit (0 = unbounded).
func (t *Tracker) PendingDocuments(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT document_id FROM document_progress
		WHERE document_type = ? AND status IN ('pending', 'failed')
		ORDER BY created_at`
	args := []any{t.documentType}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pending documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending document: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Statistics computes aggregate counts, success rate, average processing
// time, and the 10 most recently failed documents.
func (t *Tracker) Statistics(ctx context.Context) (Stats, error) {
	stats := Stats{DocumentType: t.documentType}

	rows, err := t.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM document_progress WHERE document_type = ? GROUP BY status`,
		t.documentType,
	)
	if err != nil {
		return stats, fmt.Errorf("count by status: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return stats, fmt.Errorf("scan status count: %w", err)
		}
		switch Status(status) {
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		case StatusPending:
			stats.Pending = count
		case StatusProcessing:
			stats.Processing = count
		}
		stats.Total += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	if stats.Completed+stats.Failed > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(stats.Completed+stats.Failed) * 100
	}

	var avg sql.NullFloat64
	err = t.db.QueryRowContext(ctx, `
		SELECT AVG(processing_time_ms) FROM document_progress
		WHERE document_type = ? AND status = 'completed' AND processing_time_ms IS NOT NULL`,
		t.documentType,
	).Scan(&avg)
	if err != nil && err != sql.ErrNoRows {
		return stats, fmt.Errorf("avg processing time: %w", err)
	}
	if avg.Valid {
		ms := int64(avg.Float64)
		stats.AvgProcessingTimeMs = &ms
	}

	failedRows, err := t.db.QueryContext(ctx, `
		SELECT document_id, error_message, updated_at FROM document_progress
		WHERE document_type = ? AND status = 'failed'
		ORDER BY updated_at DESC LIMIT 10`,
		t.documentType,
	)
	if err != nil {
		return stats, fmt.Errorf("failed documents: %w", err)
	}
	defer failedRows.Close()
	for failedRows.Next() {
		var fd FailedDocument
		var errMsg sql.NullString
		if err := failedRows.Scan(&fd.DocumentID, &errMsg, &fd.FailedAt); err != nil {
			return stats, fmt.Errorf("scan failed document: %w", err)
		}
		fd.Error = errMsg.String
		stats.FailedDocuments = append(stats.FailedDocuments, fd)
	}
	return stats, failedRows.Err()
}

// ResetProcessingStatus reverts any document stuck in "processing" back to
// "pending", for recovery after a crashed run. It returns the number reset.
func (t *Tracker) ResetProcessingStatus(ctx context.Context) (int64, error) {
	res, err := t.db.ExecContext(ctx, `
		UPDATE document_progress SET status = 'pending', updated_at = CURRENT_TIMESTAMP
		WHERE document_type = ? AND status = 'processing'`,
		t.documentType,
	)
	if err != nil {
		return 0, fmt.Errorf("reset processing status: %w", err)
	}
	return res.RowsAffected()
}

// RunHistory returns the most recent ingestion runs for this document type,
// newest first.
func (t *Tracker) RunHistory(ctx context.Context, limit int) ([]Run, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT run_id, document_type, start_date, end_date, total_documents,
		       completed_documents, failed_documents, started_at, completed_at, parameters
		FROM ingestion_runs WHERE document_type = ? ORDER BY started_at DESC LIMIT ?`,
		t.documentType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("run history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var completedAt sql.NullString
		if err := rows.Scan(&r.RunID, &r.DocumentType, &r.StartDate, &r.EndDate,
			&r.TotalDocuments, &r.CompletedDocuments, &r.FailedDocuments,
			&r.StartedAt, &completedAt, &r.Parameters); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if completedAt.Valid {
			r.CompletedAt = &completedAt.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close releases the underlying database handle.
func (t *Tracker) Close() error { return t.db.Close() }
