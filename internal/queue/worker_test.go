package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyonboard/easyonboard/pkg/errors"
)

func TestNewWorker(t *testing.T) {
	w := NewWorker(nil, DefaultWorkerConfig())

	assert.NotEmpty(t, w.ID())
	assert.False(t, w.IsRunning())
	assert.False(t, w.GetStats().StartedAt.IsZero())
}

func TestWorker_RegisterHandler(t *testing.T) {
	w := NewWorker(nil, DefaultWorkerConfig())

	w.RegisterHandler(JobTypeDocumentIngestion, func(ctx context.Context, job *Job) error {
		return nil
	})

	w.mu.RLock()
	defer w.mu.RUnlock()
	assert.Contains(t, w.handlers, JobTypeDocumentIngestion)
}

func TestWorker_StopWithoutStart(t *testing.T) {
	w := NewWorker(nil, DefaultWorkerConfig())

	err := w.Stop()

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConflict, errors.GetType(err))
}
