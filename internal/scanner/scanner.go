/**
 * Scan Processor - Job-Level Entry Point
 *
 * Sits between the queue consumers and the extraction pipeline: decodes
 * the uploaded photo, runs the pipeline, and persists the outcome. Both
 * the asynq consumer and the plain Redis list consumer drive the same
 * processor.
 */

package scanner

import (
	"bytes"
	"context"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ivisit/idscan-worker/internal/errors"
	"github.com/ivisit/idscan-worker/internal/logging"
	"github.com/ivisit/idscan-worker/internal/pipeline"
	"github.com/ivisit/idscan-worker/internal/storage"
)

// ScanRequest is one scan job as delivered by a queue consumer.
type ScanRequest struct {
	ScanID         string
	UserID         string
	Filename       string
	MimeType       string
	FileSize       int64
	FileBuffer     []byte
	ExpectedIDType string
	Metadata       map[string]interface{}
}

// ScanResult is the persisted outcome of one scan.
type ScanResult struct {
	Record           map[string]interface{} `json:"record"`
	IDType           string                 `json:"idType"`
	Method           string                 `json:"method"`
	Score            int                    `json:"score"`
	Confidence       float64                `json:"confidence"`
	ProcessingTimeMs int64                  `json:"processingTimeMs"`
}

// ScanProcessorInterface is what the queue consumers depend on.
type ScanProcessorInterface interface {
	ProcessScan(ctx context.Context, req *ScanRequest) (*ScanResult, error)
	UpdateScanStatus(ctx context.Context, scanID string, status string, details map[string]interface{}) error
}

// ScanProcessor is the production implementation.
type ScanProcessor struct {
	extractor     *pipeline.Extractor
	store         *storage.PostgresClient
	maxImageBytes int64
	logger        *logging.Logger
}

// NewScanProcessor creates a scan processor. store may be nil when the
// worker runs without persistence (local development).
func NewScanProcessor(extractor *pipeline.Extractor, store *storage.PostgresClient, maxImageBytes int64) *ScanProcessor {
	return &ScanProcessor{
		extractor:     extractor,
		store:         store,
		maxImageBytes: maxImageBytes,
		logger:        logging.NewLogger("ScanProcessor"),
	}
}

// ProcessScan decodes the photo, runs the extraction pipeline, and
// persists the final record.
func (s *ScanProcessor) ProcessScan(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	start := time.Now()

	if len(req.FileBuffer) == 0 {
		return nil, errors.NewInvalidImageError(req.ScanID, nil)
	}
	if s.maxImageBytes > 0 && int64(len(req.FileBuffer)) > s.maxImageBytes {
		s.logger.Warn("Rejecting oversized image", "scanId", req.ScanID, "size", len(req.FileBuffer), "max", s.maxImageBytes)
		return nil, errors.NewInvalidImageError(req.ScanID, nil)
	}

	photo, err := imaging.Decode(bytes.NewReader(req.FileBuffer), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.NewInvalidImageError(req.ScanID, err)
	}

	res, err := s.extractor.ExtractFromPhoto(ctx, req.ScanID, photo, req.ExpectedIDType)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	result := &ScanResult{
		Record: map[string]interface{}{
			"fullName":   res.Record.FullName,
			"dob":        res.Record.DOB,
			"idNumber":   res.Record.IDNumber,
			"idType":     res.Record.IDType,
			"address":    res.Record.Address,
			"confidence": res.Record.Confidence,
		},
		IDType:           res.Record.IDType,
		Method:           res.Method,
		Score:            res.Score,
		Confidence:       overallConfidence(res),
		ProcessingTimeMs: elapsed.Milliseconds(),
	}

	if s.store != nil {
		update := &storage.ScanUpdate{
			ScanID:           req.ScanID,
			Status:           "completed",
			UserID:           req.UserID,
			Filename:         req.Filename,
			MimeType:         req.MimeType,
			FileSize:         req.FileSize,
			ExpectedIDType:   req.ExpectedIDType,
			IDType:           res.Record.IDType,
			Record:           result.Record,
			Method:           res.Method,
			Score:            res.Score,
			Confidence:       result.Confidence,
			ProcessingTimeMs: result.ProcessingTimeMs,
			Metadata:         req.Metadata,
		}
		if err := s.store.UpdateScanStatus(ctx, update); err != nil {
			// Persistence is not allowed to fail the scan: the caller still
			// gets the record, the row catches up on the next write.
			s.logger.Error("Failed to persist scan result", "scanId", req.ScanID, "error", err)
		}
	}

	s.logger.Info("Scan processed", "scanId", req.ScanID,
		"idType", result.IDType,
		"method", result.Method,
		"elapsed", elapsed)

	return result, nil
}

// overallConfidence folds the three core field confidences into one
// stored value.
func overallConfidence(res pipeline.Result) float64 {
	c := res.Record.Confidence
	return (c.FullName + c.DOB + c.IDNumber) / 3
}

// UpdateScanStatus writes a lifecycle status row for the scan.
func (s *ScanProcessor) UpdateScanStatus(ctx context.Context, scanID string, status string, details map[string]interface{}) error {
	if s.store == nil {
		return nil
	}

	update := &storage.ScanUpdate{
		ScanID:   scanID,
		Status:   status,
		Metadata: details,
	}
	if details != nil {
		if msg, ok := details["error"].(string); ok {
			update.ErrorMessage = msg
		}
		if code, ok := details["code"].(string); ok {
			update.ErrorCode = code
		}
		if filename, ok := details["filename"].(string); ok {
			update.Filename = filename
		}
		if userID, ok := details["userId"].(string); ok {
			update.UserID = userID
		}
	}
	return s.store.UpdateScanStatus(ctx, update)
}
