/**
 * Queue consumer for the OCR worker.
 *
 * Consumes conversion jobs from Redis through Asynq, runs the document
 * pipeline and records the outcome in the job store. The same process
 * can also enqueue jobs, which is what the CLI submission path uses.
 */

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	apperrors "github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/errors"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/pipeline"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/storage"
)

// TaskConvertDocument is the asynq task type for one PDF conversion.
const TaskConvertDocument = "document:convert"

// JobData is the conversion task payload.
type JobData struct {
	JobID    string                 `json:"jobId"`
	Path     string                 `json:"path"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	ProcessingTimeout int64 // milliseconds, whole-job budget
}

// Consumer handles job consumption from the Redis queue.
type Consumer struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	assembler *pipeline.Assembler
	jobs      *storage.PostgresClient
	artifacts *storage.ArtifactStore
	config    *ConsumerConfig
	log       *logging.Logger
}

// NewConsumer creates a queue consumer wired to the pipeline and stores.
func NewConsumer(cfg *ConsumerConfig, assembler *pipeline.Assembler,
	jobs *storage.PostgresClient, artifacts *storage.ArtifactStore,
	log *logging.Logger) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if assembler == nil {
		return nil, fmt.Errorf("assembler is required")
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
				cfg.QueueName: 10,
				"default":     1,
			},
			// Exponential backoff capped at one minute.
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("task processing error",
					"type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		client:    client,
		server:    server,
		mux:       mux,
		assembler: assembler,
		jobs:      jobs,
		artifacts: artifacts,
		config:    cfg,
		log:       log,
	}
	mux.HandleFunc(TaskConvertDocument, consumer.handleConvertDocument)

	return consumer, nil
}

// EnqueueDocument submits a conversion job for the PDF at path and
// returns the job ID.
func (c *Consumer) EnqueueDocument(ctx context.Context, path string, metadata map[string]interface{}) (string, error) {
	data := JobData{
		JobID:    uuid.NewString(),
		Path:     path,
		Metadata: metadata,
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	task := asynq.NewTask(TaskConvertDocument, payload)
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.config.QueueName)); err != nil {
		return "", fmt.Errorf("enqueue conversion job: %w", err)
	}
	c.log.Info("conversion job enqueued", "job_id", data.JobID, "path", path)
	return data.JobID, nil
}

// Start starts the queue consumer.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("starting queue consumer",
		"concurrency", c.config.Concurrency, "queue", c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			c.log.Error("queue consumer error", "error", err)
		}
	}()
	return nil
}

// Stop stops the queue consumer gracefully.
func (c *Consumer) Stop(ctx context.Context) error {
	c.log.Info("stopping queue consumer")

	c.server.Shutdown()
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}

	c.log.Info("queue consumer stopped")
	return nil
}

// handleConvertDocument runs one conversion job end to end.
func (c *Consumer) handleConvertDocument(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var job JobData
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %w", err)
	}
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	log := c.log.WithField("job_id", job.JobID)
	log.Info("processing conversion job", "path", job.Path)

	c.updateStatus(ctx, &storage.JobUpdate{
		JobID:    job.JobID,
		Status:   storage.StatusProcessing,
		Document: job.Path,
		Metadata: job.Metadata,
	})

	timeout := 30 * time.Minute
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}
	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.assembler.Convert(processCtx, job.Path)
	duration := time.Since(startTime)

	if err != nil {
		update := &storage.JobUpdate{
			JobID:            job.JobID,
			Status:           storage.StatusFailed,
			Document:         job.Path,
			ErrorMessage:     err.Error(),
			ProcessingTimeMs: duration.Milliseconds(),
		}
		var pe *apperrors.PipelineError
		if errors.As(err, &pe) {
			update.ErrorCode = string(pe.Kind)
			update.Metadata = pe.ToMap()
		}
		if processCtx.Err() == context.DeadlineExceeded {
			log.Error("conversion timed out", "timeout", timeout)
		} else {
			log.Error("conversion failed", "error", err, "duration", duration)
		}
		c.updateStatus(ctx, update)
		return fmt.Errorf("document conversion failed: %w", err)
	}

	outputPath, err := c.artifacts.SaveMarkdown(job.Path, result.Markdown)
	if err != nil {
		log.Error("artifact write failed", "error", err)
		c.updateStatus(ctx, &storage.JobUpdate{
			JobID:            job.JobID,
			Status:           storage.StatusFailed,
			Document:         job.Path,
			ErrorMessage:     err.Error(),
			ProcessingTimeMs: duration.Milliseconds(),
		})
		return fmt.Errorf("artifact write failed: %w", err)
	}

	log.Info("conversion job completed",
		"pages", result.PageCount,
		"degraded_pages", result.DegradedPages,
		"tables", result.TablesDetected,
		"output", outputPath,
		"duration_ms", duration.Milliseconds())

	c.updateStatus(ctx, &storage.JobUpdate{
		JobID:            job.JobID,
		Status:           storage.StatusCompleted,
		Document:         job.Path,
		Pages:            result.PageCount,
		OCRPages:         result.OCRPages,
		CachedPages:      result.CachedPages,
		DegradedPages:    result.DegradedPages,
		TablesDetected:   result.TablesDetected,
		OutputPath:       outputPath,
		ProcessingTimeMs: duration.Milliseconds(),
		Metadata:         job.Metadata,
	})
	return nil
}

// updateStatus records a job transition; store failures are logged, never
// propagated into the conversion outcome.
func (c *Consumer) updateStatus(ctx context.Context, update *storage.JobUpdate) {
	if c.jobs == nil {
		return
	}
	if err := c.jobs.UpdateJobStatus(ctx, update); err != nil {
		c.log.Warn("failed to update job status",
			"job_id", update.JobID, "status", update.Status, "error", err)
	}
}

// GetStatistics returns consumer statistics.
func (c *Consumer) GetStatistics() map[string]interface{} {
	return map[string]interface{}{
		"concurrency": c.config.Concurrency,
		"queue":       c.config.QueueName,
	}
}
