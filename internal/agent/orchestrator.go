package agent

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/google/uuid"

	"github.com/easyonboard/easyonboard/internal/awsclients"
	"github.com/easyonboard/easyonboard/pkg/config"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

// FallbackReply is returned when the assistant cannot answer at all
const FallbackReply = "Sorry, I am temporarily unavailable. Please try again later."

// QueryType selects a specialist routing prompt
type QueryType string

const (
	QueryLearningPath QueryType = "learning_path"
	QueryAssessment   QueryType = "assessment"
	QueryContent      QueryType = "content"
	QueryProgress     QueryType = "progress"
)

// UserProfile carries the employee context used to enrich questions
type UserProfile struct {
	Role            string `json:"role"`
	Department      string `json:"department"`
	ExperienceLevel string `json:"experience_level"`
}

// ChatResponse is one assistant turn
type ChatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
	Degraded  bool   `json:"degraded"`
}

// Invoker produces the assistant's reply for one conversation turn
type Invoker interface {
	Invoke(ctx context.Context, sessionID, inputText string) (string, error)
}

// AssistantAPI is the slice of the Bedrock agent runtime client we use
type AssistantAPI interface {
	InvokeAgent(ctx context.Context, params *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// bedrockInvoker reads the streamed completion into a single reply string
type bedrockInvoker struct {
	client  AssistantAPI
	agentID string
	aliasID string
}

func (b *bedrockInvoker) Invoke(ctx context.Context, sessionID, inputText string) (string, error) {
	out, err := b.client.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      &b.agentID,
		AgentAliasId: &b.aliasID,
		SessionId:    &sessionID,
		InputText:    &inputText,
	})
	if err != nil {
		return "", awsclients.Classify(awsclients.DependencyAssistant, err)
	}

	stream := out.GetStream()
	defer stream.Close()

	var reply []byte
	for event := range stream.Events() {
		if chunk, ok := event.(*types.ResponseStreamMemberChunk); ok {
			reply = append(reply, chunk.Value.Bytes...)
		}
	}
	if err := stream.Err(); err != nil {
		return "", awsclients.Classify(awsclients.DependencyAssistant, err)
	}

	return string(reply), nil
}

// Orchestrator coordinates the conversational assistant: plain questions,
// profile-enriched questions, and specialist routing all funnel through
// one guarded agent invocation.
type Orchestrator struct {
	guard   *resilience.Guard
	agentID string
	aliasID string
	logger  *logging.Logger
}

// NewOrchestrator wraps the assistant handle with a guard
func NewOrchestrator(cfg *config.Config, handle *resilience.Handle, retry resilience.RetryConfig, observer resilience.Observer) (*Orchestrator, error) {
	guard, err := resilience.NewGuard(handle, resilience.GuardConfig{
		Name:        handle.Name(),
		Retry:       retry,
		UserMessage: FallbackReply,
		Observer:    observer,
		Fallback: func(ctx context.Context, operation string) interface{} {
			return FallbackReply
		},
	})
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		guard:   guard,
		agentID: cfg.Assistant.AgentID,
		aliasID: cfg.Assistant.AgentAliasID,
		logger:  logging.GetLogger(),
	}, nil
}

// Ask sends one question to the assistant. An empty session id starts a
// new conversation. The response is total: when the assistant is down or
// disabled the reply is the fallback message with Degraded set.
func (o *Orchestrator) Ask(ctx context.Context, question, sessionID string) ChatResponse {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result := o.guard.Do(ctx, "invoke_agent", func(ctx context.Context, client interface{}) (interface{}, error) {
		if question == "" {
			return nil, errors.NewValidationError("question must not be empty")
		}
		return o.invokerFor(client).Invoke(ctx, sessionID, question)
	})

	o.logger.LogAssistantEvent(ctx, "ask", sessionID, map[string]interface{}{
		"succeeded": result.Succeeded,
		"fallback":  result.Fallback,
		"attempts":  result.Attempts,
	})

	if !result.Succeeded {
		return ChatResponse{Reply: result.UserMessage, SessionID: sessionID, Degraded: true}
	}
	if result.Fallback {
		return ChatResponse{Reply: result.Payload.(string), SessionID: sessionID, Degraded: true}
	}
	return ChatResponse{Reply: result.Payload.(string), SessionID: sessionID}
}

// AskPersonalized enriches the question with the employee's profile
// before sending it to the assistant.
func (o *Orchestrator) AskPersonalized(ctx context.Context, question string, profile UserProfile, sessionID string) ChatResponse {
	role := profile.Role
	if role == "" {
		role = "Unknown"
	}
	department := profile.Department
	if department == "" {
		department = "Unknown"
	}

	enriched := fmt.Sprintf("User Role: %s. Department: %s. Question: %s", role, department, question)
	return o.Ask(ctx, enriched, sessionID)
}

// RouteToSpecialist prefixes the question with a specialist prompt.
// Unknown query types pass the question through unchanged.
func (o *Orchestrator) RouteToSpecialist(ctx context.Context, queryType QueryType, question, sessionID string) ChatResponse {
	prompts := map[QueryType]string{
		QueryLearningPath: "Create a personalized learning path. ",
		QueryAssessment:   "Provide skills assessment guidance. ",
		QueryContent:      "Find and recommend relevant content. ",
		QueryProgress:     "Analyze and report on progress. ",
	}

	if prefix, ok := prompts[queryType]; ok {
		question = prefix + question
	}
	return o.Ask(ctx, question, sessionID)
}

func (o *Orchestrator) invokerFor(client interface{}) Invoker {
	if invoker, ok := client.(Invoker); ok {
		return invoker
	}
	return &bedrockInvoker{
		client:  client.(AssistantAPI),
		agentID: o.agentID,
		aliasID: o.aliasID,
	}
}
