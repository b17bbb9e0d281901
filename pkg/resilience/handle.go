package resilience

import (
	"context"
	"fmt"
	"sync"

	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
)

// State represents the availability of a remote dependency
type State int

const (
	// StateAvailable - the dependency can be called (client may still be uninitialized)
	StateAvailable State = iota
	// StateDisabled - the dependency's feature flag is off
	StateDisabled
	// StateUnreachable - client construction failed; stays failed for the process lifetime
	StateUnreachable
)

func (s State) String() string {
	switch s {
	case StateAvailable:
		return "AVAILABLE"
	case StateDisabled:
		return "DISABLED"
	case StateUnreachable:
		return "UNREACHABLE"
	default:
		return "UNKNOWN"
	}
}

// InitFunc constructs the underlying client for a dependency
type InitFunc func(ctx context.Context) (interface{}, error)

// Handle tracks the availability of one remote dependency and owns its
// lazily constructed client. Construction happens at most once even under
// concurrent first use; a failed construction is sticky.
type Handle struct {
	name string
	init InitFunc

	mu          sync.Mutex
	state       State
	client      interface{}
	initialized bool

	logger *logging.Logger
}

// NewHandle creates a handle for a dependency. A disabled handle never
// attempts construction and always degrades.
func NewHandle(name string, enabled bool, init InitFunc) *Handle {
	state := StateAvailable
	if !enabled {
		state = StateDisabled
	}

	return &Handle{
		name:   name,
		init:   init,
		state:  state,
		logger: logging.GetLogger(),
	}
}

// Name returns the dependency name
func (h *Handle) Name() string {
	return h.name
}

// State returns the current availability state
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Client returns the constructed client, initializing it on first use.
// All racing first callers observe the result of a single construction
// attempt. Once construction fails the handle reports Unreachable forever.
func (h *Handle) Client(ctx context.Context) (interface{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateDisabled:
		return nil, errors.NewConfigurationError(h.name, fmt.Sprintf("%s is disabled", h.name))
	case StateUnreachable:
		return nil, errors.NewConfigurationError(h.name, fmt.Sprintf("%s client is unreachable", h.name))
	}

	if h.initialized {
		return h.client, nil
	}

	if h.init == nil {
		h.state = StateUnreachable
		h.initialized = true
		return nil, errors.NewConfigurationError(h.name, fmt.Sprintf("%s has no client constructor", h.name))
	}

	client, err := h.init(ctx)
	h.initialized = true
	if err != nil {
		h.state = StateUnreachable
		h.logger.Error("Dependency client construction failed",
			"dependency", h.name,
			"error", err.Error(),
		)
		return nil, errors.NewConfigurationError(h.name, fmt.Sprintf("failed to construct %s client", h.name)).WithCause(err)
	}

	h.client = client
	h.logger.Info("Dependency client initialized", "dependency", h.name)
	return h.client, nil
}
