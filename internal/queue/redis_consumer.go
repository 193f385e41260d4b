/**
 * Direct Redis Queue Consumer for ID Scan Worker
 *
 * Compatible with the Node.js backend's RedisQueue implementation.
 * Uses simple Redis LIST operations for perfect compatibility.
 */

package queue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ivisit/idscan-worker/internal/errors"
	"github.com/ivisit/idscan-worker/internal/scanner"
)

// RedisScanJob represents a job envelope from the Redis queue.
type RedisScanJob struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Payload    ScanPayload `json:"payload"`
	CreatedAt  time.Time   `json:"createdAt"`
	Attempts   int         `json:"attempts"`
	MaxRetries int         `json:"maxRetries"`
}

// ScanPayload contains the actual scan data.
type ScanPayload struct {
	ScanID         string                 `json:"scanId"`
	UserID         string                 `json:"userId"`
	Filename       string                 `json:"filename"`
	MimeType       string                 `json:"mimeType,omitempty"`
	FileSize       int64                  `json:"fileSize,omitempty"`
	FileBuffer     []byte                 // Set by custom UnmarshalJSON
	ExpectedIDType string                 `json:"expectedIdType,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// UnmarshalJSON handles the two fileBuffer encodings the backend has
// shipped: base64 string (current) and Node.js Buffer object (legacy).
func (p *ScanPayload) UnmarshalJSON(data []byte) error {
	type Alias ScanPayload
	aux := &struct {
		FileBuffer interface{} `json:"fileBuffer,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to unmarshal ScanPayload: %w", err)
	}

	if aux.FileBuffer != nil {
		switch v := aux.FileBuffer.(type) {
		case string:
			decoded, err := base64.StdEncoding.DecodeString(v)
			if err != nil {
				return fmt.Errorf("failed to decode base64 fileBuffer: %w", err)
			}
			p.FileBuffer = decoded

		case map[string]interface{}:
			if bufferType, ok := v["type"].(string); ok && bufferType == "Buffer" {
				dataArray, ok := v["data"].([]interface{})
				if !ok {
					return fmt.Errorf("Buffer object missing 'data' array")
				}
				p.FileBuffer = make([]byte, len(dataArray))
				for i, val := range dataArray {
					byteVal, ok := val.(float64)
					if !ok {
						return fmt.Errorf("invalid byte value in Buffer data array at index %d", i)
					}
					p.FileBuffer[i] = byte(byteVal)
				}
			} else {
				return fmt.Errorf("invalid Buffer object format (missing or incorrect 'type' field)")
			}

		default:
			return fmt.Errorf("fileBuffer must be either base64 string or Buffer object, got %T", v)
		}
	}

	return nil
}

// RedisConsumer handles scan job consumption from a plain Redis list.
type RedisConsumer struct {
	client    *redis.Client
	processor scanner.ScanProcessorInterface
	config    *RedisConsumerConfig
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// RedisConsumerConfig holds consumer configuration.
type RedisConsumerConfig struct {
	RedisURL    string
	QueueName   string
	Concurrency int
	Processor   scanner.ScanProcessorInterface
	ScanTimeout int64 // Scan timeout in milliseconds (default: 60000)
}

// NewRedisConsumer creates a new Redis-based queue consumer.
func NewRedisConsumer(cfg *RedisConsumerConfig) (*RedisConsumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "idscan:jobs"
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	consumerCtx, cancel := context.WithCancel(context.Background())

	return &RedisConsumer{
		client:    client,
		processor: cfg.Processor,
		config:    cfg,
		ctx:       consumerCtx,
		cancel:    cancel,
	}, nil
}

// Start begins processing jobs from the queue.
func (c *RedisConsumer) Start() error {
	log.Printf("Starting Redis queue consumer (concurrency=%d, queue=%s)...",
		c.config.Concurrency, c.config.QueueName)

	for i := 0; i < c.config.Concurrency; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}

	log.Println("Queue consumer started successfully")
	return nil
}

// Stop gracefully stops the consumer.
func (c *RedisConsumer) Stop() error {
	log.Println("Stopping queue consumer...")
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

// worker is a goroutine that processes jobs.
func (c *RedisConsumer) worker(id int) {
	defer c.wg.Done()
	log.Printf("Worker %d started", id)

	for {
		select {
		case <-c.ctx.Done():
			log.Printf("Worker %d stopping", id)
			return
		default:
			if err := c.processNextJob(); err != nil {
				if err.Error() != "no jobs available" {
					log.Printf("Worker %d error: %v", id, err)
				}
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// processNextJob fetches and processes the next job from the queue.
func (c *RedisConsumer) processNextJob() error {
	result, err := c.client.BRPop(c.ctx, 5*time.Second, c.config.QueueName).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("no jobs available")
		}
		return fmt.Errorf("failed to fetch job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	jobID := result[1]

	jobData, err := c.client.HGet(c.ctx, fmt.Sprintf("%s:data", c.config.QueueName), jobID).Result()
	if err != nil {
		return fmt.Errorf("failed to get job data: %w", err)
	}

	var job RedisScanJob
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	if err := c.processor.UpdateScanStatus(c.ctx, job.Payload.ScanID, "processing", map[string]interface{}{
		"filename": job.Payload.Filename,
		"userId":   job.Payload.UserID,
	}); err != nil {
		log.Printf("Note: Could not update scan status to processing: %v", err)
	}

	c.markScan(job.Payload.ScanID, "processing", nil)

	log.Printf("Processing scan %s: %s (expectedType=%s)",
		job.Payload.ScanID, job.Payload.Filename, job.Payload.ExpectedIDType)

	scanResult, err := c.processScan(&job)
	if err != nil {
		log.Printf("Scan %s failed: %v", job.Payload.ScanID, err)

		// No-signal failures are not requeued: the same photo will fail
		// the same way. The operator retries with a new capture.
		var scanErr *errors.ScanError
		noSignal := errors.As(err, &scanErr) && scanErr.Code == errors.ErrorNoSignal

		job.Attempts++
		if !noSignal && job.Attempts < job.MaxRetries {
			updatedData, _ := json.Marshal(job)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:data", c.config.QueueName), job.ID, updatedData)
			c.client.LPush(c.ctx, c.config.QueueName, job.ID)
			log.Printf("Scan %s re-queued for retry (attempt %d/%d)", job.Payload.ScanID, job.Attempts, job.MaxRetries)
		} else {
			c.markScan(job.Payload.ScanID, "failed", map[string]interface{}{
				"error":    err.Error(),
				"attempts": job.Attempts,
			})
			if updateErr := c.processor.UpdateScanStatus(c.ctx, job.Payload.ScanID, "failed", errorDetails(err, 0)); updateErr != nil {
				log.Printf("WARNING: Failed to update scan status for failed scan: %v", updateErr)
			}
		}
	} else {
		c.markScan(job.Payload.ScanID, "completed", scanResult)
		log.Printf("Scan %s completed successfully", job.Payload.ScanID)
	}

	return nil
}

// processScan runs one scan with a bounded timeout.
func (c *RedisConsumer) processScan(job *RedisScanJob) (*scanner.ScanResult, error) {
	startTime := time.Now()

	request := &scanner.ScanRequest{
		ScanID:         job.Payload.ScanID,
		UserID:         job.Payload.UserID,
		Filename:       job.Payload.Filename,
		MimeType:       job.Payload.MimeType,
		FileSize:       job.Payload.FileSize,
		FileBuffer:     job.Payload.FileBuffer,
		ExpectedIDType: job.Payload.ExpectedIDType,
		Metadata:       job.Payload.Metadata,
	}

	timeout := 60 * time.Second
	if c.config.ScanTimeout > 0 {
		timeout = time.Duration(c.config.ScanTimeout) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := c.processor.ProcessScan(ctx, request)

	duration := time.Since(startTime)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Printf("[Scan %s] Timed out after %v (timeout: %v)", job.Payload.ScanID, duration, timeout)

			timeoutErr := errors.NewScanTimeoutError(job.Payload.ScanID, timeout, err)
			if updateErr := c.processor.UpdateScanStatus(c.ctx, job.Payload.ScanID, "failed", timeoutErr.ToMap()); updateErr != nil {
				log.Printf("[Scan %s] Warning: Failed to update status to failed: %v", job.Payload.ScanID, updateErr)
			}
			return nil, fmt.Errorf("scan timeout: %w", timeoutErr)
		}
		return nil, err
	}

	log.Printf("[Scan %s] Completed in %v", job.Payload.ScanID, duration)
	return result, nil
}

// markScan updates queue bookkeeping in Redis and publishes the
// lifecycle event for WebSocket streaming.
func (c *RedisConsumer) markScan(scanID string, status string, result interface{}) {
	switch status {
	case "processing":
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), scanID)
	case "completed":
		c.client.SRem(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), scanID)
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:completed", c.config.QueueName), scanID)
		if result != nil {
			resultData, _ := json.Marshal(result)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:results", c.config.QueueName), scanID, resultData)
		}
	case "failed":
		c.client.SRem(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), scanID)
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:failed", c.config.QueueName), scanID)
		if result != nil {
			errorData, _ := json.Marshal(result)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:errors", c.config.QueueName), scanID, errorData)
		}
	}

	event := map[string]interface{}{
		"event":     fmt.Sprintf("scan:%s", status),
		"scanId":    scanID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	eventData, _ := json.Marshal(event)
	c.client.Publish(c.ctx, fmt.Sprintf("%s:events", c.config.QueueName), eventData)
}

// GetStats returns queue statistics.
func (c *RedisConsumer) GetStats() (map[string]int64, error) {
	ctx := context.Background()

	waiting, _ := c.client.LLen(ctx, c.config.QueueName).Result()
	processing, _ := c.client.SCard(ctx, fmt.Sprintf("%s:processing", c.config.QueueName)).Result()
	completed, _ := c.client.SCard(ctx, fmt.Sprintf("%s:completed", c.config.QueueName)).Result()
	failed, _ := c.client.SCard(ctx, fmt.Sprintf("%s:failed", c.config.QueueName)).Result()

	return map[string]int64{
		"waiting":    waiting,
		"processing": processing,
		"completed":  completed,
		"failed":     failed,
	}, nil
}
