/**
 * ID Scan Worker - Main Entry Point
 *
 * Go worker for Philippine ID field extraction.
 *
 * Architecture:
 * - Redis-backed scan job queue (plain list, Node.js backend compatible)
 * - Geometric rectification + multi-pass Tesseract OCR pipeline
 * - ROI template crops per ID type, merged with whole-card parsing
 * - Optional vision-model fallback via OpenRouter
 * - PostgreSQL persistence for scan results
 */

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ivisit/idscan-worker/internal/clients"
	"github.com/ivisit/idscan-worker/internal/config"
	"github.com/ivisit/idscan-worker/internal/ocr"
	"github.com/ivisit/idscan-worker/internal/pipeline"
	"github.com/ivisit/idscan-worker/internal/queue"
	"github.com/ivisit/idscan-worker/internal/rectify"
	"github.com/ivisit/idscan-worker/internal/scanner"
	"github.com/ivisit/idscan-worker/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(".env.idscan"); err != nil {
		log.Printf("Warning: .env.idscan not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("ID Scan Worker starting...")
	log.Printf("Configuration loaded: Redis=%s, Queue=%s, Workers=%d, VisionEnabled=%v",
		cfg.RedisURL, cfg.QueueName, cfg.WorkerConcurrency, cfg.VisionEnabled())

	// Initialize PostgreSQL store
	log.Printf("Connecting to PostgreSQL...")
	store, err := storage.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	log.Printf("PostgreSQL client initialized")

	// Initialize OCR engine
	engine, err := ocr.NewTesseractEngine(&ocr.TesseractConfig{
		TessdataPrefix: cfg.TessdataPrefix,
		Language:       cfg.TessLanguage,
	})
	if err != nil {
		log.Fatalf("Failed to initialize Tesseract engine: %v", err)
	}
	log.Printf("Tesseract engine initialized (language=%s)", cfg.TessLanguage)

	// Optional vision fallback
	var vision pipeline.VisionExtractor
	if cfg.VisionEnabled() {
		vision = clients.NewVisionClient(cfg.OpenRouterAPIURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
		log.Printf("Vision fallback enabled (model=%s)", cfg.OpenRouterModel)
	} else {
		log.Printf("Vision fallback disabled (no OPENROUTER_API_KEY)")
	}

	// Assemble extraction pipeline
	ocrTimeout := time.Duration(cfg.OCRTimeoutMs) * time.Millisecond
	extractor := pipeline.NewExtractor(
		rectify.New(rectify.DefaultConfig()),
		ocr.NewMultiPass(engine, ocrTimeout),
		engine,
		vision,
		ocrTimeout,
	)
	log.Printf("Extraction pipeline initialized")

	// Initialize scan processor
	proc := scanner.NewScanProcessor(extractor, store, cfg.MaxImageBytes)

	// Initialize queue consumer
	log.Printf("Connecting to Redis queue...")
	queueConsumer, err := queue.NewRedisConsumer(&queue.RedisConsumerConfig{
		RedisURL:    cfg.RedisURL,
		QueueName:   cfg.QueueName,
		Concurrency: cfg.WorkerConcurrency,
		Processor:   proc,
		ScanTimeout: int64(cfg.ScanTimeoutMs),
	})
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}
	log.Printf("Queue consumer initialized with concurrency=%d", cfg.WorkerConcurrency)

	// Start queue consumer
	if err := queueConsumer.Start(); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}

	// Print startup summary
	log.Printf("===========================================")
	log.Printf("ID Scan Worker is READY")
	log.Printf("===========================================")
	log.Printf("Queue: %s", cfg.QueueName)
	log.Printf("Workers: %d", cfg.WorkerConcurrency)
	log.Printf("OCR pass timeout: %v", ocrTimeout)
	log.Printf("Scan timeout: %v", time.Duration(cfg.ScanTimeoutMs)*time.Millisecond)
	log.Printf("===========================================")
	log.Printf("Waiting for scans...")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	if err := queueConsumer.Stop(); err != nil {
		log.Printf("Error stopping queue consumer: %v", err)
	} else {
		log.Printf("Queue consumer stopped successfully")
	}

	if err := store.Close(); err != nil {
		log.Printf("Error closing PostgreSQL client: %v", err)
	}

	log.Printf("Shutdown complete")
}
