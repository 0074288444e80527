/**
 * OCR worker - main entry point.
 *
 * Converts PDF documents to Markdown:
 * - Asynq consumer on a Redis-backed job queue
 * - Per-page pipeline: preprocessing, layout estimation, table
 *   extraction and Tesseract OCR, with a content-addressed result cache
 * - Spanish legal text postprocessing and optional LLM refinement
 * - PostgreSQL persistence for job state, Markdown artifacts on disk
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/cache"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/config"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/ocr"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/pipeline"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/queue"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/refine"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/storage"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/textproc"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("worker")
	logger.Info("OCR worker starting",
		"queue", cfg.QueueName,
		"concurrency", cfg.WorkerConcurrency,
		"page_workers", cfg.EffectivePageWorkers(),
		"dpi", cfg.RenderDPI,
		"language", cfg.OCRLanguage)

	jobs, err := storage.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to job store", "error", err)
		os.Exit(1)
	}
	defer jobs.Close()

	artifacts, err := storage.NewArtifactStore(cfg.OutputDir)
	if err != nil {
		logger.Error("failed to prepare output directory", "error", err)
		os.Exit(1)
	}

	store, err := cache.New(cfg, logger)
	if err != nil {
		logger.Error("failed to open result cache", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	engine, err := ocr.New(ocr.KindTesseract, ocr.Options{TesseractPath: cfg.TesseractPath})
	if err != nil {
		logger.Error("failed to build OCR engine", "error", err)
		os.Exit(1)
	}

	refiner, err := refine.New(cfg)
	if err != nil {
		logger.Error("failed to build refiner", "error", err)
		os.Exit(1)
	}
	if refiner.Enabled() {
		logger.Info("LLM refinement enabled", "model", cfg.RefinerModel)
	}

	corrections := textproc.LoadCorrections(cfg.CorrectionsPath, logger)
	postprocessor := textproc.NewPostprocessor(corrections)

	pages := pipeline.NewPageProcessor(cfg, engine, store, postprocessor, logger)
	assembler := pipeline.NewAssembler(cfg, pages, refiner, logger)

	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerConcurrency,
		ProcessingTimeout: int64(cfg.ProcessingTimeout),
	}, assembler, jobs, artifacts, logger)
	if err != nil {
		logger.Error("failed to initialize queue consumer", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := consumer.Start(ctx); err != nil {
		logger.Error("failed to start queue consumer", "error", err)
		os.Exit(1)
	}
	logger.Info("worker ready, waiting for jobs")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("shutdown signal received", "signal", sig.String())

	if err := consumer.Stop(ctx); err != nil {
		logger.Error("error stopping queue consumer", "error", err)
	}
	logger.Info("shutdown complete")
}
