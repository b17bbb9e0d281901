package resilience

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyonboard/easyonboard/pkg/errors"
)

func fastRetry(maxAttempts int) RetryConfig {
	return RetryConfig{MaxAttempts: maxAttempts, Delay: time.Millisecond}
}

func availableHandle(name string) *Handle {
	return NewHandle(name, true, func(ctx context.Context) (interface{}, error) {
		return "client", nil
	})
}

type recordingObserver struct {
	mu      sync.Mutex
	results []CallResult
}

func (o *recordingObserver) ObserveRemoteCall(dependency, operation string, result CallResult, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func TestNewGuard_InvalidRetryConfig(t *testing.T) {
	guard, err := NewGuard(availableHandle("assistant"), GuardConfig{
		Retry: RetryConfig{MaxAttempts: 0},
	})

	require.Error(t, err)
	assert.Nil(t, guard)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
}

func TestGuard_Do_Success(t *testing.T) {
	guard, err := NewGuard(availableHandle("assistant"), GuardConfig{Retry: fastRetry(3)})
	require.NoError(t, err)

	calls := 0
	result := guard.Do(context.Background(), "invoke", func(ctx context.Context, client interface{}) (interface{}, error) {
		calls++
		assert.Equal(t, "client", client)
		return map[string]string{"reply": "welcome aboard"}, nil
	})

	assert.True(t, result.Succeeded)
	assert.False(t, result.Fallback)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, calls)
	assert.Equal(t, map[string]string{"reply": "welcome aboard"}, result.Payload)
	assert.Empty(t, result.UserMessage)
}

func TestGuard_Do_TransientFailureExhaustsRetries(t *testing.T) {
	guard, err := NewGuard(availableHandle("assistant"), GuardConfig{Retry: fastRetry(3)})
	require.NoError(t, err)

	calls := 0
	result := guard.Do(context.Background(), "invoke", func(ctx context.Context, client interface{}) (interface{}, error) {
		calls++
		return nil, errors.NewExternalError("assistant", "internal server error")
	})

	assert.False(t, result.Succeeded)
	assert.False(t, result.Fallback)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, calls)
	assert.Equal(t, errors.ErrorTypeExternal, result.ErrorKind)
	assert.Equal(t, GenericUserMessage, result.UserMessage)
	assert.Nil(t, result.Payload)
}

func TestGuard_Do_TerminalFailureSingleAttempt(t *testing.T) {
	guard, err := NewGuard(availableHandle("progress"), GuardConfig{Retry: fastRetry(3)})
	require.NoError(t, err)

	calls := 0
	result := guard.Do(context.Background(), "get_progress", func(ctx context.Context, client interface{}) (interface{}, error) {
		calls++
		return nil, errors.NewValidationError("employee id is required")
	})

	assert.False(t, result.Succeeded)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, calls)
	assert.Equal(t, errors.ErrorTypeValidation, result.ErrorKind)
	assert.Equal(t, GenericUserMessage, result.UserMessage)
}

func TestGuard_Do_TransientThenSuccess(t *testing.T) {
	guard, err := NewGuard(availableHandle("email"), GuardConfig{Retry: fastRetry(5)})
	require.NoError(t, err)

	calls := 0
	result := guard.Do(context.Background(), "send", func(ctx context.Context, client interface{}) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.NewTimeoutError("send")
		}
		return "message-id", nil
	})

	assert.True(t, result.Succeeded)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "message-id", result.Payload)
}

func TestGuard_Do_DisabledServesFallbackWithoutCalls(t *testing.T) {
	handle := NewHandle("progress", false, func(ctx context.Context) (interface{}, error) {
		t.Fatal("constructor must not run for a disabled dependency")
		return nil, nil
	})

	guard, err := NewGuard(handle, GuardConfig{
		Retry: fastRetry(3),
		Fallback: func(ctx context.Context, operation string) interface{} {
			return map[string]interface{}{"overall_progress": 45}
		},
	})
	require.NoError(t, err)

	calls := 0
	result := guard.Do(context.Background(), "get_progress", func(ctx context.Context, client interface{}) (interface{}, error) {
		calls++
		return nil, nil
	})

	assert.True(t, result.Succeeded)
	assert.True(t, result.Fallback)
	assert.Equal(t, 0, result.Attempts)
	assert.Equal(t, 0, calls, "no remote call may be made while degraded")
	assert.Equal(t, map[string]interface{}{"overall_progress": 45}, result.Payload)
}

func TestGuard_Do_DisabledWithoutFallbackFails(t *testing.T) {
	handle := NewHandle("voice", false, nil)
	guard, err := NewGuard(handle, GuardConfig{Retry: fastRetry(3)})
	require.NoError(t, err)

	result := guard.Do(context.Background(), "synthesize", func(ctx context.Context, client interface{}) (interface{}, error) {
		return "audio", nil
	})

	assert.False(t, result.Succeeded)
	assert.False(t, result.Fallback)
	assert.Equal(t, 0, result.Attempts)
	assert.Equal(t, errors.ErrorTypeConfiguration, result.ErrorKind)
	assert.Equal(t, GenericUserMessage, result.UserMessage)
}

func TestGuard_Do_UnreachableServesFallback(t *testing.T) {
	handle := NewHandle("storage", true, func(ctx context.Context) (interface{}, error) {
		return nil, fmt.Errorf("no credentials")
	})
	guard, err := NewGuard(handle, GuardConfig{
		Retry: fastRetry(3),
		Fallback: func(ctx context.Context, operation string) interface{} {
			return []string{"orientation-guide.pdf"}
		},
	})
	require.NoError(t, err)

	result := guard.Do(context.Background(), "list_objects", func(ctx context.Context, client interface{}) (interface{}, error) {
		t.Fatal("operation must not run when client construction failed")
		return nil, nil
	})

	assert.True(t, result.Succeeded)
	assert.True(t, result.Fallback)
	assert.Equal(t, 0, result.Attempts)
	assert.Equal(t, StateUnreachable, handle.State())
}

func TestGuard_Do_CustomUserMessage(t *testing.T) {
	guard, err := NewGuard(availableHandle("assistant"), GuardConfig{
		Retry:       fastRetry(1),
		UserMessage: "Sorry, I am temporarily unavailable. Please try again in a moment.",
	})
	require.NoError(t, err)

	result := guard.Do(context.Background(), "invoke", func(ctx context.Context, client interface{}) (interface{}, error) {
		return nil, errors.NewExternalError("assistant", "down")
	})

	assert.False(t, result.Succeeded)
	assert.Equal(t, "Sorry, I am temporarily unavailable. Please try again in a moment.", result.UserMessage)
}

func TestGuard_Do_RecoversPanic(t *testing.T) {
	guard, err := NewGuard(availableHandle("docs"), GuardConfig{Retry: fastRetry(3)})
	require.NoError(t, err)

	var result CallResult
	require.NotPanics(t, func() {
		result = guard.Do(context.Background(), "extract", func(ctx context.Context, client interface{}) (interface{}, error) {
			panic("nil dereference in response parsing")
		})
	})

	assert.False(t, result.Succeeded)
	assert.Equal(t, errors.ErrorTypeInternal, result.ErrorKind)
	assert.Equal(t, GenericUserMessage, result.UserMessage)
	assert.Contains(t, result.ErrorMessage, "nil dereference")
}

func TestGuard_Do_NotifiesObserver(t *testing.T) {
	observer := &recordingObserver{}
	guard, err := NewGuard(availableHandle("assistant"), GuardConfig{
		Retry:    fastRetry(2),
		Observer: observer,
	})
	require.NoError(t, err)

	guard.Do(context.Background(), "invoke", func(ctx context.Context, client interface{}) (interface{}, error) {
		return "ok", nil
	})
	guard.Do(context.Background(), "invoke", func(ctx context.Context, client interface{}) (interface{}, error) {
		return nil, errors.NewExternalError("assistant", "down")
	})

	require.Len(t, observer.results, 2)
	assert.True(t, observer.results[0].Succeeded)
	assert.False(t, observer.results[1].Succeeded)
	assert.Equal(t, 2, observer.results[1].Attempts)
}
