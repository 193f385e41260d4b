/**
 * Queue Consumer for ID Scan Worker
 *
 * Consumes scan jobs from BullMQ/Redis queue and runs the extraction
 * pipeline. Uses Asynq (Go BullMQ-compatible library) for queue
 * management.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ivisit/idscan-worker/internal/errors"
	"github.com/ivisit/idscan-worker/internal/scanner"
)

// ScanJobData represents the structure of scan job data from the queue.
type ScanJobData struct {
	ScanID         string                 `json:"scanId"`
	UserID         string                 `json:"userId"`
	Filename       string                 `json:"filename"`
	MimeType       string                 `json:"mimeType,omitempty"`
	FileSize       int64                  `json:"fileSize,omitempty"`
	FileBuffer     []byte                 `json:"fileBuffer,omitempty"`
	ExpectedIDType string                 `json:"expectedIdType,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Consumer handles scan job consumption from the Redis queue.
type Consumer struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor scanner.ScanProcessorInterface
	config    *ConsumerConfig
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	RedisURL    string
	QueueName   string
	Concurrency int
	Processor   scanner.ScanProcessorInterface
	ScanTimeout int64 // Scan timeout in milliseconds (default: 60000)
}

// NewConsumer creates a new queue consumer.
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10, // Priority 10 for main queue
				"default":     1,  // Priority 1 for fallback
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 5s, 10s, 20s, capped at 60s
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task processing error: type=%s, error=%v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		client:    client,
		server:    server,
		mux:       mux,
		processor: cfg.Processor,
		config:    cfg,
	}

	mux.HandleFunc("scan-id", consumer.handleScanID)

	return consumer, nil
}

// EnqueueScan publishes a scan job onto the queue. Used by Go-side
// producers; the Node backend pushes to the plain Redis list instead.
func (c *Consumer) EnqueueScan(ctx context.Context, job *ScanJobData) (string, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job data: %w", err)
	}

	task := asynq.NewTask("scan-id", payload)
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.config.QueueName),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue scan: %w", err)
	}

	return info.ID, nil
}

// Start starts the queue consumer.
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("Starting queue consumer (concurrency=%d, queue=%s)...",
		c.config.Concurrency, c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			log.Printf("Queue consumer error: %v", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully.
func (c *Consumer) Stop(ctx context.Context) error {
	log.Printf("Stopping queue consumer...")

	c.server.Shutdown()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}

	log.Printf("Queue consumer stopped")
	return nil
}

// handleScanID processes one ID scan job.
func (c *Consumer) handleScanID(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var jobData ScanJobData
	if err := json.Unmarshal(task.Payload(), &jobData); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	log.Printf("[Scan %s] Processing: filename=%s, size=%d bytes, expectedType=%s",
		jobData.ScanID, jobData.Filename, len(jobData.FileBuffer), jobData.ExpectedIDType)

	if err := c.processor.UpdateScanStatus(ctx, jobData.ScanID, "processing", map[string]interface{}{
		"filename": jobData.Filename,
		"userId":   jobData.UserID,
	}); err != nil {
		log.Printf("[Scan %s] Warning: Failed to update status to processing: %v", jobData.ScanID, err)
	}

	timeout := 60 * time.Second
	if c.config.ScanTimeout > 0 {
		timeout = time.Duration(c.config.ScanTimeout) * time.Millisecond
	}

	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.processor.ProcessScan(scanCtx, &scanner.ScanRequest{
		ScanID:         jobData.ScanID,
		UserID:         jobData.UserID,
		Filename:       jobData.Filename,
		MimeType:       jobData.MimeType,
		FileSize:       jobData.FileSize,
		FileBuffer:     jobData.FileBuffer,
		ExpectedIDType: jobData.ExpectedIDType,
		Metadata:       jobData.Metadata,
	})

	duration := time.Since(startTime)

	if err != nil {
		if scanCtx.Err() == context.DeadlineExceeded {
			log.Printf("[Scan %s] Timed out after %v (timeout: %v)", jobData.ScanID, duration, timeout)

			timeoutErr := errors.NewScanTimeoutError(jobData.ScanID, timeout, err)
			if updateErr := c.processor.UpdateScanStatus(ctx, jobData.ScanID, "failed", timeoutErr.ToMap()); updateErr != nil {
				log.Printf("[Scan %s] Warning: Failed to update status to failed: %v", jobData.ScanID, updateErr)
			}
			return fmt.Errorf("scan timeout: %w", timeoutErr)
		}

		log.Printf("[Scan %s] Failed after %v: %v", jobData.ScanID, duration, err)

		if updateErr := c.processor.UpdateScanStatus(ctx, jobData.ScanID, "failed", errorDetails(err, duration)); updateErr != nil {
			log.Printf("[Scan %s] Warning: Failed to update status to failed: %v", jobData.ScanID, updateErr)
		}

		// A no-signal scan is retried by the operator with a better photo,
		// not by the queue.
		var scanErr *errors.ScanError
		if errors.As(err, &scanErr) && scanErr.Code == errors.ErrorNoSignal {
			return nil
		}
		return fmt.Errorf("scan processing failed: %w", err)
	}

	log.Printf("[Scan %s] Completed in %v: idType=%s, method=%s, score=%d",
		jobData.ScanID, duration, result.IDType, result.Method, result.Score)

	return nil
}

// errorDetails builds the failure metadata stored with a failed scan.
func errorDetails(err error, duration time.Duration) map[string]interface{} {
	var scanErr *errors.ScanError
	if errors.As(err, &scanErr) {
		m := scanErr.ToMap()
		m["processingTime"] = duration.Milliseconds()
		return m
	}
	return map[string]interface{}{
		"error":          err.Error(),
		"processingTime": duration.Milliseconds(),
	}
}
