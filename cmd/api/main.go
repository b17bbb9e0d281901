package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/easyonboard/easyonboard/internal/agent"
	"github.com/easyonboard/easyonboard/internal/api"
	"github.com/easyonboard/easyonboard/internal/assessment"
	"github.com/easyonboard/easyonboard/internal/awsclients"
	"github.com/easyonboard/easyonboard/internal/content"
	"github.com/easyonboard/easyonboard/internal/docs"
	"github.com/easyonboard/easyonboard/internal/email"
	"github.com/easyonboard/easyonboard/internal/progress"
	"github.com/easyonboard/easyonboard/internal/queue"
	"github.com/easyonboard/easyonboard/internal/scheduler"
	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/internal/voice"
	"github.com/easyonboard/easyonboard/internal/vr"
	"github.com/easyonboard/easyonboard/pkg/config"
	"github.com/easyonboard/easyonboard/pkg/logging"
	"github.com/easyonboard/easyonboard/pkg/metrics"
	"github.com/easyonboard/easyonboard/pkg/resilience"
	"github.com/easyonboard/easyonboard/pkg/tracing"
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
		ServiceName: "easyonboard-api",
		Version:     "1.0.0",
	})
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	logging.SetGlobalLogger(logger)

	m := metrics.NewMetrics(metrics.DefaultConfig())

	tracer, err := tracing.NewTracingService(tracing.DefaultConfig())
	if err != nil {
		logger.Warn("Tracing disabled", "error", err.Error())
		tracer = nil
	}

	// Redis is optional: without it the API loses rate limiting and
	// async document ingestion but keeps serving.
	var redisClient *queue.RedisClient
	var jobs *queue.Queue
	if rc, err := queue.NewRedisClient(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, continuing without queue", "error", err.Error())
	} else {
		redisClient = rc
		jobs = queue.NewQueue(rc, "easyonboard", queue.DefaultQueueConfig())
		defer rc.Close()
	}

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

	orchestrator, err := agent.NewOrchestrator(cfg, clients.Assistant, retry, m)
	if err != nil {
		log.Fatalf("Failed to build assistant orchestrator: %v", err)
	}
	notifier, err := email.NewNotifier(cfg, clients.Email, retry, m)
	if err != nil {
		log.Fatalf("Failed to build email notifier: %v", err)
	}
	voiceService, err := voice.NewService(clients.Transcribe, clients.Speech, objects, cfg.AWS.ContentBucket, retry, m)
	if err != nil {
		log.Fatalf("Failed to build voice service: %v", err)
	}
	processor, err := docs.NewProcessor(clients.Textract, objects, records, cfg.AWS.KnowledgeTable, cfg.AWS.ContentBucket, retry, m)
	if err != nil {
		log.Fatalf("Failed to build document processor: %v", err)
	}

	tracker := progress.NewTracker(records, cfg.AWS.ProgressTable)

	router := api.NewRouter(cfg, api.Dependencies{
		Handles: clients.Handles(),
		Redis:   redisClient,
		Jobs:    jobs,
		Metrics: m,
		Tracing: tracer,

		Orchestrator: orchestrator,
		Personalizer: agent.NewPersonalizer(),
		Tracker:      tracker,
		Curator:      content.NewCurator(objects),
		Assessments:  assessment.NewService(records, cfg.AWS.AssessmentTable),
		Scheduler:    scheduler.NewScheduler(records, cfg.AWS.MeetingsTable, cfg.Email.PortalURL+"/meetings"),
		VR:           vr.NewEngine(objects, tracker, cfg.Email.PortalURL+"/vr"),
		Voice:        voiceService,
		Notifier:     notifier,
		Documents:    processor,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting API server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if tracer != nil {
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Warn("Tracer shutdown failed", "error", err.Error())
		}
	}

	logger.Info("Server exited")
}
