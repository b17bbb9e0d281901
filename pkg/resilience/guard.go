package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
)

// GenericUserMessage is shown to end users whenever a remote call fails
// after exhausting its retries. It never leaks provider error details.
const GenericUserMessage = "Sorry, this service is temporarily unavailable. Please try again later."

// CallResult is the uniform outcome of a guarded remote call. Exactly one
// of three shapes comes back: a live payload, a synthetic fallback payload
// (Fallback=true), or a failure with a safe user-facing message.
type CallResult struct {
	Succeeded    bool             `json:"succeeded"`
	Payload      interface{}      `json:"payload,omitempty"`
	ErrorKind    errors.ErrorType `json:"error_kind,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	UserMessage  string           `json:"user_message,omitempty"`
	Attempts     int              `json:"attempts"`
	Fallback     bool             `json:"fallback"`
}

// Err rebuilds a typed error from a failed result; nil when the call
// succeeded or a fallback was served.
func (r CallResult) Err() error {
	if r.Succeeded {
		return nil
	}
	return errors.NewAppError(r.ErrorKind, "REMOTE_CALL_FAILED", r.ErrorMessage)
}

// Operation is a single remote call against an initialized client
type Operation func(ctx context.Context, client interface{}) (interface{}, error)

// FallbackFunc produces a synthetic payload when the dependency cannot be
// called at all. Returning nil means no fallback exists for the operation.
type FallbackFunc func(ctx context.Context, operation string) interface{}

// Observer receives the outcome of every guarded call, live or degraded
type Observer interface {
	ObserveRemoteCall(dependency, operation string, result CallResult, elapsed time.Duration)
}

// GuardConfig configures a Guard for one dependency
type GuardConfig struct {
	Name        string
	Retry       RetryConfig
	Fallback    FallbackFunc
	UserMessage string
	Observer    Observer
}

// Guard wraps every remote call to one dependency with availability
// checking, bounded retries, and a total degradation path. Do never
// panics and never returns a zero CallResult.
type Guard struct {
	handle      *Handle
	retrier     *Retrier
	fallback    FallbackFunc
	userMessage string
	observer    Observer
	logger      *logging.Logger
}

// NewGuard builds a guard over the given handle. It fails only on an
// invalid retry configuration.
func NewGuard(handle *Handle, config GuardConfig) (*Guard, error) {
	retrier, err := NewRetrier(config.Retry)
	if err != nil {
		return nil, err
	}

	userMessage := config.UserMessage
	if userMessage == "" {
		userMessage = GenericUserMessage
	}

	return &Guard{
		handle:      handle,
		retrier:     retrier,
		fallback:    config.Fallback,
		userMessage: userMessage,
		observer:    config.Observer,
		logger:      logging.GetLogger(),
	}, nil
}

// Handle returns the dependency handle the guard protects
func (g *Guard) Handle() *Handle {
	return g.handle
}

// Do executes one remote operation under the guard. The dependency's
// client is resolved first; if it is disabled or unreachable no remote
// call is made and the fallback payload (if any) is returned instead.
// Live calls are retried per the retry configuration, and any outcome -
// including a panic inside the operation - is folded into a CallResult.
func (g *Guard) Do(ctx context.Context, operation string, op Operation) (result CallResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Remote operation panicked",
				"dependency", g.handle.Name(),
				"operation", operation,
				"panic", fmt.Sprintf("%v", r),
			)
			result = g.failure(errors.NewInternalError(fmt.Sprintf("panic in %s.%s: %v", g.handle.Name(), operation, r)), result.Attempts)
		}
		g.observe(operation, result, time.Since(start))
	}()

	client, err := g.handle.Client(ctx)
	if err != nil {
		return g.degrade(ctx, operation, err)
	}

	var payload interface{}
	attempts, err := g.retrier.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		payload, opErr = op(ctx, client)
		return opErr
	})

	g.logger.LogRemoteCall(ctx, g.handle.Name(), operation, attempts, time.Since(start), logrus.Fields{
		"succeeded": err == nil,
	})

	if err != nil {
		return g.failure(err, attempts)
	}

	return CallResult{
		Succeeded: true,
		Payload:   payload,
		Attempts:  attempts,
	}
}

// degrade handles the path where the dependency was never callable:
// no attempts are counted and the fallback payload is served when one exists.
func (g *Guard) degrade(ctx context.Context, operation string, cause error) CallResult {
	g.logger.Warn("Skipping remote call for unavailable dependency",
		"dependency", g.handle.Name(),
		"operation", operation,
		"state", g.handle.State().String(),
	)

	if g.fallback != nil {
		if payload := g.fallback(ctx, operation); payload != nil {
			return CallResult{
				Succeeded: true,
				Payload:   payload,
				Attempts:  0,
				Fallback:  true,
			}
		}
	}

	return g.failure(cause, 0)
}

func (g *Guard) failure(err error, attempts int) CallResult {
	return CallResult{
		Succeeded:    false,
		ErrorKind:    errors.GetType(err),
		ErrorMessage: err.Error(),
		UserMessage:  g.userMessage,
		Attempts:     attempts,
	}
}

func (g *Guard) observe(operation string, result CallResult, elapsed time.Duration) {
	if g.observer == nil {
		return
	}
	g.observer.ObserveRemoteCall(g.handle.Name(), operation, result, elapsed)
}
