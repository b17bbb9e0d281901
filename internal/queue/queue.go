package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
)

// Queue is a Redis-backed job queue for background onboarding work
type Queue struct {
	redis  *RedisClient
	name   string
	config QueueConfig
	logger *logging.Logger
}

// QueueConfig contains queue tuning knobs
type QueueConfig struct {
	JobTTL       time.Duration `json:"job_ttl"`
	DequeueBlock time.Duration `json:"dequeue_block"`
}

// DefaultQueueConfig returns the default queue configuration
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		JobTTL:       24 * time.Hour,
		DequeueBlock: 1 * time.Second,
	}
}

// NewQueue creates a job queue
func NewQueue(redis *RedisClient, name string, config QueueConfig) *Queue {
	return &Queue{
		redis:  redis,
		name:   name,
		config: config,
		logger: logging.GetLogger(),
	}
}

func (q *Queue) pendingKey() string {
	return fmt.Sprintf("queue:%s:pending", q.name)
}

func (q *Queue) retryKey() string {
	return fmt.Sprintf("queue:%s:retry", q.name)
}

func (q *Queue) processingKey() string {
	return fmt.Sprintf("queue:%s:processing", q.name)
}

func (q *Queue) deadKey() string {
	return fmt.Sprintf("queue:%s:dead", q.name)
}

func (q *Queue) jobKey(jobID string) string {
	return fmt.Sprintf("queue:%s:job:%s", q.name, jobID)
}

func (q *Queue) statsKey() string {
	return fmt.Sprintf("queue:%s:stats", q.name)
}

// Enqueue adds a job to the pending queue
func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.NewValidationError("job cannot be nil")
	}

	job.Status = JobStatusQueued
	if err := q.storeJob(ctx, job); err != nil {
		return err
	}
	if err := q.redis.lpush(ctx, q.pendingKey(), job.ID); err != nil {
		return err
	}

	q.bumpStat(ctx, "enqueued", job.Type)
	q.logger.Info("Job enqueued", "job_id", job.ID, "job_type", string(job.Type))
	return nil
}

// Dequeue pops the next runnable job and marks it running. Returns a
// not-found error when no job is ready within the blocking window.
func (q *Queue) Dequeue(ctx context.Context, workerID string) (*Job, error) {
	if err := q.promoteRetries(ctx); err != nil {
		q.logger.Warn("Failed to promote retry jobs", "error", err.Error())
	}

	result, err := q.redis.brpop(ctx, q.config.DequeueBlock, q.pendingKey())
	if err != nil {
		return nil, err
	}
	if len(result) < 2 {
		return nil, errors.NewNotFoundError("job")
	}
	jobID := result[1]

	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job.Status = JobStatusRunning
	job.Attempts++
	job.StartedAt = &now
	job.WorkerID = workerID
	if err := q.storeJob(ctx, job); err != nil {
		return nil, err
	}

	deadline := float64(now.Add(job.Timeout).Unix())
	if err := q.redis.client.ZAdd(ctx, q.processingKey(), redis.Z{Score: deadline, Member: jobID}).Err(); err != nil {
		return nil, errors.NewExternalError("queue", "failed to track running job").WithCause(err)
	}

	return job, nil
}

// Complete marks a job as finished
func (q *Queue) Complete(ctx context.Context, jobID string) error {
	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	now := time.Now()
	job.Status = JobStatusCompleted
	job.CompletedAt = &now
	if err := q.storeJob(ctx, job); err != nil {
		return err
	}

	q.redis.client.ZRem(ctx, q.processingKey(), jobID)
	q.bumpStat(ctx, "completed", job.Type)
	return nil
}

// Fail records a failed attempt, scheduling a retry while attempts
// remain and parking the job on the dead queue when they run out
func (q *Queue) Fail(ctx context.Context, jobID, errorMsg string) error {
	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.LastError = errorMsg
	q.redis.client.ZRem(ctx, q.processingKey(), jobID)

	if job.CanRetry() {
		job.Status = JobStatusRetrying
		if err := q.storeJob(ctx, job); err != nil {
			return err
		}

		retryAt := float64(time.Now().Add(job.RetryDelay).Unix())
		if err := q.redis.client.ZAdd(ctx, q.retryKey(), redis.Z{Score: retryAt, Member: jobID}).Err(); err != nil {
			return errors.NewExternalError("queue", "failed to schedule retry").WithCause(err)
		}
		q.bumpStat(ctx, "retried", job.Type)
		return nil
	}

	now := time.Now()
	job.Status = JobStatusFailed
	job.CompletedAt = &now
	if err := q.storeJob(ctx, job); err != nil {
		return err
	}
	if err := q.redis.lpush(ctx, q.deadKey(), jobID); err != nil {
		return err
	}

	q.bumpStat(ctx, "failed", job.Type)
	q.logger.Warn("Job moved to dead queue", "job_id", jobID, "error", errorMsg)
	return nil
}

// Cancel cancels a job that has not started running
func (q *Queue) Cancel(ctx context.Context, jobID string) error {
	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != JobStatusQueued && job.Status != JobStatusRetrying {
		return errors.NewConflictError("job cannot be cancelled in its current status")
	}

	now := time.Now()
	job.Status = JobStatusCancelled
	job.CompletedAt = &now
	if err := q.storeJob(ctx, job); err != nil {
		return err
	}

	q.redis.client.LRem(ctx, q.pendingKey(), 0, jobID)
	q.redis.client.ZRem(ctx, q.retryKey(), jobID)
	q.bumpStat(ctx, "cancelled", job.Type)
	return nil
}

// GetJob fetches a job by id
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	data, err := q.redis.get(ctx, q.jobKey(jobID))
	if err != nil {
		return nil, err
	}
	job, err := FromJSON([]byte(data))
	if err != nil {
		return nil, errors.NewInternalError("failed to deserialize job").WithCause(err)
	}
	return job, nil
}

// GetStats returns the queue depth by position
func (q *Queue) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats

	pending, err := q.redis.client.LLen(ctx, q.pendingKey()).Result()
	if err != nil {
		return Stats{}, errors.NewExternalError("queue", "failed to read queue depth").WithCause(err)
	}
	stats.Pending = pending

	if n, err := q.redis.client.ZCard(ctx, q.processingKey()).Result(); err == nil {
		stats.Processing = n
	}
	if n, err := q.redis.client.ZCard(ctx, q.retryKey()).Result(); err == nil {
		stats.Retrying = n
	}
	if n, err := q.redis.client.LLen(ctx, q.deadKey()).Result(); err == nil {
		stats.Dead = n
	}
	return stats, nil
}

// Cleanup fails jobs whose execution deadline has passed and promotes
// due retries back onto the pending queue
func (q *Queue) Cleanup(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)

	expired, err := q.redis.client.ZRangeByScore(ctx, q.processingKey(), &redis.ZRangeBy{Min: "0", Max: now}).Result()
	if err == nil {
		for _, jobID := range expired {
			if failErr := q.Fail(ctx, jobID, "job timed out"); failErr != nil {
				q.logger.Warn("Failed to expire job", "job_id", jobID, "error", failErr.Error())
			}
		}
	}

	return q.promoteRetries(ctx)
}

func (q *Queue) promoteRetries(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)

	due, err := q.redis.client.ZRangeByScore(ctx, q.retryKey(), &redis.ZRangeBy{Min: "0", Max: now}).Result()
	if err != nil {
		return errors.NewExternalError("queue", "failed to read retry queue").WithCause(err)
	}

	for _, jobID := range due {
		job, err := q.GetJob(ctx, jobID)
		if err != nil {
			q.redis.client.ZRem(ctx, q.retryKey(), jobID)
			continue
		}

		q.redis.client.ZRem(ctx, q.retryKey(), jobID)
		job.Status = JobStatusQueued
		if err := q.storeJob(ctx, job); err != nil {
			continue
		}
		if err := q.redis.lpush(ctx, q.pendingKey(), jobID); err != nil {
			continue
		}
	}
	return nil
}

func (q *Queue) storeJob(ctx context.Context, job *Job) error {
	data, err := job.ToJSON()
	if err != nil {
		return errors.NewInternalError("failed to serialize job").WithCause(err)
	}
	return q.redis.set(ctx, q.jobKey(job.ID), data, q.config.JobTTL)
}

func (q *Queue) bumpStat(ctx context.Context, action string, jobType JobType) {
	field := fmt.Sprintf("%s:%s", action, jobType)
	if err := q.redis.client.HIncrBy(ctx, q.statsKey(), field, 1).Err(); err != nil {
		q.logger.Debug("Failed to update queue stats", "field", field)
	}
}
