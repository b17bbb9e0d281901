package resilience

import (
	"context"
	"time"

	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first one.
	// Must be at least 1.
	MaxAttempts int
	// Delay is the fixed wait between attempts. Fixed rather than
	// exponential: MaxAttempts is small and the delay bounds total latency.
	Delay time.Duration
	// RetryableErrors determines if an error is worth retrying
	RetryableErrors func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		Delay:           5 * time.Second,
		RetryableErrors: errors.IsTransient,
	}
}

// Retrier handles retry logic with a fixed inter-attempt delay
type Retrier struct {
	config RetryConfig
	logger *logging.Logger
}

// NewRetrier creates a new retrier with the given configuration.
// A MaxAttempts below 1 is a configuration error, not a silent default.
func NewRetrier(config RetryConfig) (*Retrier, error) {
	if config.MaxAttempts < 1 {
		return nil, errors.NewConfigurationError("retry", "MaxAttempts must be at least 1")
	}
	if config.Delay < 0 {
		return nil, errors.NewConfigurationError("retry", "Delay must not be negative")
	}
	if config.RetryableErrors == nil {
		config.RetryableErrors = errors.IsTransient
	}

	return &Retrier{
		config: config,
		logger: logging.GetLogger(),
	}, nil
}

// Execute executes the given function with retry logic and returns the
// number of attempts made alongside the final error.
func (r *Retrier) Execute(ctx context.Context, operation func(context.Context) error) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			// A call that reached the retrier always reports at least
			// one attempt, even when the context was already canceled.
			attempts := attempt - 1
			if attempts < 1 {
				attempts = 1
			}
			return attempts, ctx.Err()
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("Operation succeeded after retry",
					"attempt", attempt,
					"max_attempts", r.config.MaxAttempts,
				)
			}
			return attempt, nil
		}

		lastErr = err

		if !r.config.RetryableErrors(err) {
			r.logger.Debug("Error is not retryable, stopping",
				"error", err.Error(),
				"attempt", attempt,
			)
			return attempt, err
		}

		if attempt == r.config.MaxAttempts {
			break
		}

		r.logger.Debug("Operation failed, retrying",
			"error", err.Error(),
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"delay", r.config.Delay,
		)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, r.config.Delay)
		}

		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(r.config.Delay):
		}
	}

	r.logger.Error("Operation failed after all retry attempts",
		"error", lastErr.Error(),
		"attempts", r.config.MaxAttempts,
	)

	return r.config.MaxAttempts, lastErr
}

// ExecuteWithResult executes the given function with retry logic and returns a result
func (r *Retrier) ExecuteWithResult(ctx context.Context, operation func(context.Context) (interface{}, error)) (interface{}, int, error) {
	var result interface{}
	attempts, err := r.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})
	if err != nil {
		return nil, attempts, err
	}
	return result, attempts, nil
}

// MaxAttempts returns the configured attempt budget
func (r *Retrier) MaxAttempts() int {
	return r.config.MaxAttempts
}
