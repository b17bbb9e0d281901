package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
)

// HandlerFunc processes one job
type HandlerFunc func(ctx context.Context, job *Job) error

// Worker pulls jobs off the queue and dispatches them to registered
// handlers. Failed handlers feed the queue's retry path.
type Worker struct {
	id       string
	queue    *Queue
	handlers map[JobType]HandlerFunc
	config   WorkerConfig
	logger   *logging.Logger

	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.RWMutex
	running bool
	stats   WorkerStats
}

// WorkerConfig contains worker tuning knobs
type WorkerConfig struct {
	Concurrency     int           `json:"concurrency"`
	PollInterval    time.Duration `json:"poll_interval"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DefaultWorkerConfig returns the default worker configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Concurrency:     3,
		PollInterval:    1 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// WorkerStats counts processed jobs
type WorkerStats struct {
	JobsProcessed int64     `json:"jobs_processed"`
	JobsSucceeded int64     `json:"jobs_succeeded"`
	JobsFailed    int64     `json:"jobs_failed"`
	LastJobAt     time.Time `json:"last_job_at"`
	StartedAt     time.Time `json:"started_at"`
}

// NewWorker creates a worker over the given queue
func NewWorker(queue *Queue, config WorkerConfig) *Worker {
	return &Worker{
		id:       uuid.NewString(),
		queue:    queue,
		handlers: make(map[JobType]HandlerFunc),
		config:   config,
		logger:   logging.GetLogger(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		stats:    WorkerStats{StartedAt: time.Now()},
	}
}

// RegisterHandler registers the handler for a job type
func (w *Worker) RegisterHandler(jobType JobType, handler HandlerFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start launches the worker goroutines
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.NewConflictError("worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < w.config.Concurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.loop(ctx, fmt.Sprintf("%s-%d", w.id, n))
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	w.logger.Info("Worker started", "worker_id", w.id, "concurrency", w.config.Concurrency)
	return nil
}

// Stop shuts the worker down, waiting for in-flight jobs
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return errors.NewConflictError("worker is not running")
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
	case <-time.After(w.config.ShutdownTimeout):
		return errors.NewTimeoutError("worker shutdown")
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

// IsRunning reports whether the worker loops are active
func (w *Worker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns a snapshot of the worker counters
func (w *Worker) GetStats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// ID returns the worker id
func (w *Worker) ID() string {
	return w.id
}

func (w *Worker) loop(ctx context.Context, workerID string) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processNext(ctx, workerID)
		}
	}
}

func (w *Worker) processNext(ctx context.Context, workerID string) {
	job, err := w.queue.Dequeue(ctx, workerID)
	if err != nil {
		if !errors.IsType(err, errors.ErrorTypeNotFound) {
			w.logger.Warn("Failed to dequeue job", "worker_id", workerID, "error", err.Error())
		}
		return
	}

	w.mu.Lock()
	w.stats.JobsProcessed++
	w.stats.LastJobAt = time.Now()
	w.mu.Unlock()

	w.process(ctx, job)
}

func (w *Worker) process(ctx context.Context, job *Job) {
	jobCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	w.mu.RLock()
	handler, ok := w.handlers[job.Type]
	w.mu.RUnlock()

	if !ok {
		w.fail(ctx, job, fmt.Sprintf("no handler registered for job type %s", job.Type))
		return
	}

	start := time.Now()
	if err := handler(jobCtx, job); err != nil {
		w.fail(ctx, job, err.Error())
		return
	}

	if err := w.queue.Complete(ctx, job.ID); err != nil {
		w.logger.Warn("Failed to mark job complete", "job_id", job.ID, "error", err.Error())
	}

	w.mu.Lock()
	w.stats.JobsSucceeded++
	w.mu.Unlock()

	w.logger.Info("Job completed",
		"job_id", job.ID,
		"job_type", string(job.Type),
		"duration_ms", time.Since(start).Milliseconds(),
		"attempts", job.Attempts,
	)
}

func (w *Worker) fail(ctx context.Context, job *Job, message string) {
	if err := w.queue.Fail(ctx, job.ID, message); err != nil {
		w.logger.Warn("Failed to mark job failed", "job_id", job.ID, "error", err.Error())
	}

	w.mu.Lock()
	w.stats.JobsFailed++
	w.mu.Unlock()
}
