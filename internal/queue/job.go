package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobType identifies the kind of work a job carries
type JobType string

const (
	// JobTypeDocumentIngestion extracts text from an uploaded document
	// and files it in the knowledge base
	JobTypeDocumentIngestion JobType = "document_ingestion"
)

// JobStatus represents the lifecycle state of a job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusRetrying  JobStatus = "retrying"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job is one unit of background work
type Job struct {
	ID          string            `json:"id"`
	Type        JobType           `json:"type"`
	Status      JobStatus         `json:"status"`
	Payload     map[string]string `json:"payload"`
	Attempts    int               `json:"attempts"`
	MaxAttempts int               `json:"max_attempts"`
	RetryDelay  time.Duration     `json:"retry_delay"`
	Timeout     time.Duration     `json:"timeout"`
	LastError   string            `json:"last_error,omitempty"`
	WorkerID    string            `json:"worker_id,omitempty"`
	EnqueuedAt  time.Time         `json:"enqueued_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// NewJob creates a queued job
func NewJob(jobType JobType, payload map[string]string) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Type:        jobType,
		Status:      JobStatusQueued,
		Payload:     payload,
		MaxAttempts: 3,
		RetryDelay:  30 * time.Second,
		Timeout:     10 * time.Minute,
		EnqueuedAt:  time.Now(),
	}
}

// NewDocumentIngestionJob creates a job that processes the document
// behind an object key
func NewDocumentIngestionJob(objectKey string) *Job {
	return NewJob(JobTypeDocumentIngestion, map[string]string{
		"object_key": objectKey,
	})
}

// ObjectKey returns the object key carried by an ingestion job
func (j *Job) ObjectKey() string {
	return j.Payload["object_key"]
}

// WithRetries overrides the retry configuration
func (j *Job) WithRetries(maxAttempts int, retryDelay time.Duration) *Job {
	j.MaxAttempts = maxAttempts
	j.RetryDelay = retryDelay
	return j
}

// WithTimeout overrides the execution timeout
func (j *Job) WithTimeout(timeout time.Duration) *Job {
	j.Timeout = timeout
	return j
}

// CanRetry reports whether the job has attempts left
func (j *Job) CanRetry() bool {
	return j.Attempts < j.MaxAttempts
}

// ToJSON serializes the job
func (j *Job) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// FromJSON deserializes a job
func FromJSON(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Stats counts jobs by queue position
type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Retrying   int64 `json:"retrying"`
	Dead       int64 `json:"dead"`
}
