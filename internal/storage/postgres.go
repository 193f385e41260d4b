/**
 * PostgreSQL Client for ID Scan Worker
 *
 * Persists scan job lifecycle and the final extracted record. The worker
 * may see a scan before the API has created its row, so every status
 * write is an upsert.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/ivisit/idscan-worker/internal/errors"
)

// PostgresClient handles database operations.
type PostgresClient struct {
	db *sql.DB
}

// ScanUpdate represents one scan status write.
type ScanUpdate struct {
	ScanID           string
	Status           string
	UserID           string
	Filename         string
	MimeType         string
	FileSize         int64
	ExpectedIDType   string
	IDType           string
	Record           map[string]interface{}
	Method           string
	Score            int
	Confidence       float64
	ProcessingTimeMs int64
	ErrorCode        string
	ErrorMessage     string
	Metadata         map[string]interface{}
}

// sanitizeConfidence rounds confidence to 4 decimal places and clamps to
// [0.0, 1.0]. Float64 representations like 0.9500000000000001 trip
// NUMERIC casting on the PostgreSQL side.
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return float64(int(confidence*10000+0.5)) / 10000
}

// NewPostgresClient creates a PostgreSQL client with pool tuning and a
// connection check.
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

// UpdateScanStatus upserts the scan row with the given status and any
// result fields present on the update.
func (p *PostgresClient) UpdateScanStatus(ctx context.Context, update *ScanUpdate) error {
	if update.ScanID == "" {
		return fmt.Errorf("scan ID is required")
	}
	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	// Queue producers sometimes send opaque job IDs; the table key is a
	// uuid, so derive a stable one from non-uuid IDs.
	scanUUID := update.ScanID
	if _, err := uuid.Parse(scanUUID); err != nil {
		scanUUID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(update.ScanID)).String()
	}

	recordJSON, err := json.Marshal(update.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO idscan.scan_jobs (
			id, user_id, filename, mime_type, file_size,
			status, expected_id_type, id_type, record,
			method, score, confidence, processing_time_ms,
			error_code, error_message, metadata,
			created_at, updated_at
		) VALUES (
			$1::uuid, COALESCE(NULLIF($2, ''), 'anonymous'),
			COALESCE(NULLIF($3, ''), 'unknown.jpg'),
			COALESCE(NULLIF($4, ''), 'image/jpeg'), COALESCE($5, 0),
			$6, NULLIF($7, ''), NULLIF($8, ''),
			COALESCE($9::jsonb, '{}'::jsonb),
			NULLIF($10, ''), NULLIF($11, 0),
			NULLIF($12::NUMERIC(5,4), 0), NULLIF($13, 0),
			NULLIF($14, ''), NULLIF($15, ''),
			COALESCE($16::jsonb, '{}'::jsonb),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			id_type = COALESCE(EXCLUDED.id_type, idscan.scan_jobs.id_type),
			record = CASE
				WHEN EXCLUDED.record <> '{}'::jsonb THEN EXCLUDED.record
				ELSE idscan.scan_jobs.record
			END,
			method = COALESCE(EXCLUDED.method, idscan.scan_jobs.method),
			score = COALESCE(EXCLUDED.score, idscan.scan_jobs.score),
			confidence = COALESCE(EXCLUDED.confidence, idscan.scan_jobs.confidence),
			processing_time_ms = COALESCE(EXCLUDED.processing_time_ms, idscan.scan_jobs.processing_time_ms),
			error_code = EXCLUDED.error_code,
			error_message = EXCLUDED.error_message,
			updated_at = NOW()
	`

	_, err = p.db.ExecContext(ctx, query,
		scanUUID,
		update.UserID,
		update.Filename,
		update.MimeType,
		update.FileSize,
		update.Status,
		update.ExpectedIDType,
		update.IDType,
		string(recordJSON),
		update.Method,
		update.Score,
		sanitizeConfidence(update.Confidence),
		update.ProcessingTimeMs,
		update.ErrorCode,
		update.ErrorMessage,
		string(metadataJSON),
	)
	if err != nil {
		return errors.NewStorageFailedError(update.ScanID, err)
	}
	return nil
}

// GetScanStatus returns the stored status and error message for a scan.
func (p *PostgresClient) GetScanStatus(ctx context.Context, scanID string) (string, string, error) {
	scanUUID := scanID
	if _, err := uuid.Parse(scanUUID); err != nil {
		scanUUID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(scanID)).String()
	}

	var status string
	var errorMessage sql.NullString
	err := p.db.QueryRowContext(ctx,
		`SELECT status, error_message FROM idscan.scan_jobs WHERE id = $1::uuid`,
		scanUUID,
	).Scan(&status, &errorMessage)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("scan %s not found", scanID)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to query scan status: %w", err)
	}
	return status, errorMessage.String, nil
}

// Close closes the database connection pool.
func (p *PostgresClient) Close() error {
	return p.db.Close()
}
