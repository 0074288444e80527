/**
 * PostgreSQL job store.
 *
 * Persists conversion job state and the per-document conversion records.
 * The worker upserts on first status update, so a job row exists even
 * when the enqueuer never created one.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Job status values written to the database.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// PostgresClient handles database operations.
type PostgresClient struct {
	db *sql.DB
}

// JobUpdate is one job status transition, with whatever result counters
// are known at that point. Zero counters are kept out of the row.
type JobUpdate struct {
	JobID            string
	Status           string
	Document         string
	Pages            int
	OCRPages         int
	CachedPages      int
	DegradedPages    int
	TablesDetected   int
	OutputPath       string
	ErrorCode        string
	ErrorMessage     string
	ProcessingTimeMs int64
	Metadata         map[string]interface{}
}

// NewPostgresClient connects to the database and verifies the connection.
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// UpdateJobStatus upserts the job row with the given transition. The
// upsert lets the worker create the row on its first update when the
// enqueuing side did not.
func (p *PostgresClient) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO ocr.conversion_jobs (
			id, document, status,
			pages, ocr_pages, cached_pages, degraded_pages, tables_detected,
			output_path, error_code, error_message, processing_time_ms,
			metadata, created_at, updated_at
		) VALUES (
			$1::uuid, COALESCE(NULLIF($2, ''), 'unknown.pdf'), $3,
			NULLIF($4, 0), NULLIF($5, 0), NULLIF($6, 0), NULLIF($7, 0), NULLIF($8, 0),
			NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, 0),
			COALESCE($13::jsonb, '{}'::jsonb),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			pages = COALESCE(EXCLUDED.pages, ocr.conversion_jobs.pages),
			ocr_pages = COALESCE(EXCLUDED.ocr_pages, ocr.conversion_jobs.ocr_pages),
			cached_pages = COALESCE(EXCLUDED.cached_pages, ocr.conversion_jobs.cached_pages),
			degraded_pages = COALESCE(EXCLUDED.degraded_pages, ocr.conversion_jobs.degraded_pages),
			tables_detected = COALESCE(EXCLUDED.tables_detected, ocr.conversion_jobs.tables_detected),
			output_path = COALESCE(EXCLUDED.output_path, ocr.conversion_jobs.output_path),
			error_code = NULLIF(EXCLUDED.error_code, ''),
			error_message = NULLIF(EXCLUDED.error_message, ''),
			processing_time_ms = COALESCE(EXCLUDED.processing_time_ms, ocr.conversion_jobs.processing_time_ms),
			metadata = COALESCE(EXCLUDED.metadata, ocr.conversion_jobs.metadata),
			document = COALESCE(EXCLUDED.document, ocr.conversion_jobs.document),
			updated_at = NOW()
		RETURNING id
	`

	var returnedID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		update.JobID,
		update.Document,
		update.Status,
		update.Pages,
		update.OCRPages,
		update.CachedPages,
		update.DegradedPages,
		update.TablesDetected,
		update.OutputPath,
		update.ErrorCode,
		update.ErrorMessage,
		update.ProcessingTimeMs,
		metadataJSON,
	).Scan(&returnedID)

	if err == sql.ErrNoRows {
		return fmt.Errorf("job not found: %s", update.JobID)
	}
	if err != nil {
		return fmt.Errorf("failed to update job status (job=%s, status=%s): %w",
			update.JobID, update.Status, err)
	}
	return nil
}

// GetJobByID retrieves a job row as a generic map for the status surface.
func (p *PostgresClient) GetJobByID(ctx context.Context, jobID string) (map[string]interface{}, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	query := `
		SELECT
			id, document, status,
			pages, ocr_pages, cached_pages, degraded_pages, tables_detected,
			output_path, error_code, error_message, processing_time_ms,
			metadata, created_at, updated_at
		FROM ocr.conversion_jobs
		WHERE id = $1::uuid
	`

	var (
		id, document, status                      string
		pages, ocrPages, cachedPages              sql.NullInt64
		degradedPages, tablesDetected             sql.NullInt64
		outputPath, errorCode, errorMessage       sql.NullString
		processingTimeMs                          sql.NullInt64
		metadataJSON                              []byte
		createdAt, updatedAt                      time.Time
	)

	err := p.db.QueryRowContext(ctx, query, jobID).Scan(
		&id, &document, &status,
		&pages, &ocrPages, &cachedPages, &degradedPages, &tablesDetected,
		&outputPath, &errorCode, &errorMessage, &processingTimeMs,
		&metadataJSON, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var metadata map[string]interface{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	result := map[string]interface{}{
		"id":        id,
		"document":  document,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
		"metadata":  metadata,
	}
	if pages.Valid {
		result["pages"] = pages.Int64
	}
	if ocrPages.Valid {
		result["ocrPages"] = ocrPages.Int64
	}
	if cachedPages.Valid {
		result["cachedPages"] = cachedPages.Int64
	}
	if degradedPages.Valid {
		result["degradedPages"] = degradedPages.Int64
	}
	if tablesDetected.Valid {
		result["tablesDetected"] = tablesDetected.Int64
	}
	if outputPath.Valid {
		result["outputPath"] = outputPath.String
	}
	if errorCode.Valid {
		result["errorCode"] = errorCode.String
	}
	if errorMessage.Valid {
		result["errorMessage"] = errorMessage.String
	}
	if processingTimeMs.Valid {
		result["processingTimeMs"] = processingTimeMs.Int64
	}

	return result, nil
}

// Ping checks database connectivity.
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics.
func (p *PostgresClient) GetStats() sql.DBStats {
	return p.db.Stats()
}
