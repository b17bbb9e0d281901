package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyonboard/easyonboard/pkg/config"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

type fakeInvoker struct {
	calls      int
	failFirstN int
	failWith   error
	lastInput  string
	lastSessID string
	reply      string
}

func (f *fakeInvoker) Invoke(ctx context.Context, sessionID, inputText string) (string, error) {
	f.calls++
	f.lastInput = inputText
	f.lastSessID = sessionID
	if f.calls <= f.failFirstN {
		return "", f.failWith
	}
	return f.reply, nil
}

func testOrchestrator(t *testing.T, invoker *fakeInvoker, enabled bool) *Orchestrator {
	t.Helper()

	handle := resilience.NewHandle("assistant", enabled, func(ctx context.Context) (interface{}, error) {
		return invoker, nil
	})
	cfg := &config.Config{}
	cfg.Assistant.AgentID = "AGENT123"
	cfg.Assistant.AgentAliasID = "ALIAS123"

	o, err := NewOrchestrator(cfg, handle, resilience.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}, nil)
	require.NoError(t, err)
	return o
}

func TestOrchestrator_Ask(t *testing.T) {
	invoker := &fakeInvoker{reply: "Welcome to the team!"}
	o := testOrchestrator(t, invoker, true)

	resp := o.Ask(context.Background(), "How do I set up my laptop?", "session-1")

	assert.Equal(t, "Welcome to the team!", resp.Reply)
	assert.Equal(t, "session-1", resp.SessionID)
	assert.False(t, resp.Degraded)
	assert.Equal(t, "How do I set up my laptop?", invoker.lastInput)
}

func TestOrchestrator_Ask_GeneratesSessionID(t *testing.T) {
	invoker := &fakeInvoker{reply: "Hello!"}
	o := testOrchestrator(t, invoker, true)

	resp := o.Ask(context.Background(), "Hi", "")

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, resp.SessionID, invoker.lastSessID)
}

func TestOrchestrator_Ask_RetriesTransientFailures(t *testing.T) {
	invoker := &fakeInvoker{
		failFirstN: 2,
		failWith:   errors.NewExternalError("assistant", "internal server error"),
		reply:      "Recovered reply",
	}
	o := testOrchestrator(t, invoker, true)

	resp := o.Ask(context.Background(), "Hello?", "session-1")

	assert.Equal(t, "Recovered reply", resp.Reply)
	assert.False(t, resp.Degraded)
	assert.Equal(t, 3, invoker.calls)
}

func TestOrchestrator_Ask_FallbackReplyAfterExhaustion(t *testing.T) {
	invoker := &fakeInvoker{
		failFirstN: 3,
		failWith:   errors.NewExternalError("assistant", "internal server error"),
	}
	o := testOrchestrator(t, invoker, true)

	resp := o.Ask(context.Background(), "Hello?", "session-1")

	assert.Equal(t, FallbackReply, resp.Reply)
	assert.True(t, resp.Degraded)
	assert.Equal(t, 3, invoker.calls)
}

func TestOrchestrator_Ask_DisabledServesFallbackWithoutCalls(t *testing.T) {
	invoker := &fakeInvoker{reply: "should never be used"}
	o := testOrchestrator(t, invoker, false)

	resp := o.Ask(context.Background(), "Hello?", "session-1")

	assert.Equal(t, FallbackReply, resp.Reply)
	assert.True(t, resp.Degraded)
	assert.Equal(t, 0, invoker.calls)
}

func TestOrchestrator_Ask_EmptyQuestionNotRetried(t *testing.T) {
	invoker := &fakeInvoker{reply: "unused"}
	o := testOrchestrator(t, invoker, true)

	resp := o.Ask(context.Background(), "", "session-1")

	assert.True(t, resp.Degraded)
	assert.Equal(t, 0, invoker.calls)
}

func TestOrchestrator_AskPersonalized(t *testing.T) {
	invoker := &fakeInvoker{reply: "Here is your plan"}
	o := testOrchestrator(t, invoker, true)

	o.AskPersonalized(context.Background(), "What should I learn first?", UserProfile{
		Role:       "Engineer",
		Department: "Platform",
	}, "session-1")

	assert.Equal(t, "User Role: Engineer. Department: Platform. Question: What should I learn first?", invoker.lastInput)
}

func TestOrchestrator_AskPersonalized_DefaultsUnknown(t *testing.T) {
	invoker := &fakeInvoker{reply: "ok"}
	o := testOrchestrator(t, invoker, true)

	o.AskPersonalized(context.Background(), "Hello", UserProfile{}, "session-1")

	assert.Equal(t, "User Role: Unknown. Department: Unknown. Question: Hello", invoker.lastInput)
}

func TestOrchestrator_RouteToSpecialist(t *testing.T) {
	tests := []struct {
		queryType QueryType
		want      string
	}{
		{QueryLearningPath, "Create a personalized learning path. What next?"},
		{QueryAssessment, "Provide skills assessment guidance. What next?"},
		{QueryContent, "Find and recommend relevant content. What next?"},
		{QueryProgress, "Analyze and report on progress. What next?"},
		{QueryType("unknown"), "What next?"},
	}

	for _, tt := range tests {
		t.Run(string(tt.queryType), func(t *testing.T) {
			invoker := &fakeInvoker{reply: "routed"}
			o := testOrchestrator(t, invoker, true)

			o.RouteToSpecialist(context.Background(), tt.queryType, "What next?", "session-1")

			assert.Equal(t, tt.want, invoker.lastInput)
		})
	}
}
