package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/easyonboard/easyonboard/internal/awsclients"
	"github.com/easyonboard/easyonboard/internal/docs"
	"github.com/easyonboard/easyonboard/internal/queue"
	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/config"
	"github.com/easyonboard/easyonboard/pkg/logging"
	"github.com/easyonboard/easyonboard/pkg/metrics"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: "easyonboard-worker",
		Version:     "1.0.0",
	})
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	logging.SetGlobalLogger(logger)

	m := metrics.NewMetrics(metrics.DefaultConfig())

	redisClient, err := queue.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	jobs := queue.NewQueue(redisClient, "easyonboard", queue.DefaultQueueConfig())

	clients := awsclients.NewClients(cfg)
	retry := resilience.RetryConfig{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Delay:       cfg.Retry.Delay,
	}

	records, err := storage.NewRecordStore(clients.Records, retry, m)
	if err != nil {
		log.Fatalf("Failed to build record store: %v", err)
	}
	objects, err := storage.NewObjectStore(clients.Objects, cfg.AWS.ContentBucket, retry, m)
	if err != nil {
		log.Fatalf("Failed to build object store: %v", err)
	}
	processor, err := docs.NewProcessor(clients.Textract, objects, records, cfg.AWS.KnowledgeTable, cfg.AWS.ContentBucket, retry, m)
	if err != nil {
		log.Fatalf("Failed to build document processor: %v", err)
	}

	worker := queue.NewWorker(jobs, queue.DefaultWorkerConfig())
	worker.RegisterHandler(queue.JobTypeDocumentIngestion, func(ctx context.Context, job *queue.Job) error {
		document, err := processor.ProcessDocument(ctx, job.ObjectKey())
		if err != nil {
			m.RecordDocumentProcessed("failed")
			return err
		}
		m.RecordDocumentProcessed("processed")
		logger.Info("Document ingested",
			"job_id", job.ID,
			"document_id", document.ID,
			"text_length", document.TextLength,
		)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := worker.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	logger.Info("Worker started", "worker_id", worker.ID())

	// Requeue timed-out jobs and promote due retries in the background
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := jobs.Cleanup(ctx); err != nil {
					logger.Warn("Queue cleanup failed", "error", err.Error())
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker")

	cancel()
	if err := worker.Stop(); err != nil {
		logger.Warn("Worker shutdown incomplete", "error", err.Error())
	}

	logger.Info("Worker exited")
}
