package api

import (
	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/agent"
	"github.com/easyonboard/easyonboard/pkg/metrics"
)

// ChatHandler serves the conversational assistant endpoints
type ChatHandler struct {
	orchestrator *agent.Orchestrator
	personalizer *agent.Personalizer
	metrics      *metrics.Metrics
}

// NewChatHandler creates a new chat handler
func NewChatHandler(orchestrator *agent.Orchestrator, personalizer *agent.Personalizer, m *metrics.Metrics) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		personalizer: personalizer,
		metrics:      m,
	}
}

// ChatRequest is a single conversation turn from the client
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

// PersonalizedChatRequest carries the employee profile with the question
type PersonalizedChatRequest struct {
	Message   string            `json:"message" binding:"required"`
	SessionID string            `json:"session_id"`
	Profile   agent.UserProfile `json:"profile"`
}

// RoutedChatRequest targets a specialist prompt
type RoutedChatRequest struct {
	Type      string `json:"type" binding:"required"`
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

// LearningPathRequest asks for a role-based learning path
type LearningPathRequest struct {
	Profile agent.UserProfile `json:"profile" binding:"required"`
}

// Ask handles POST /chat
func (h *ChatHandler) Ask(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "message is required")
		return
	}

	response := h.orchestrator.Ask(c.Request.Context(), req.Message, req.SessionID)
	h.recordConversation("general", response)
	SuccessResponse(c, response)
}

// AskPersonalized handles POST /chat/personalized
func (h *ChatHandler) AskPersonalized(c *gin.Context) {
	var req PersonalizedChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "message is required")
		return
	}

	response := h.orchestrator.AskPersonalized(c.Request.Context(), req.Message, req.Profile, req.SessionID)
	h.recordConversation("personalized", response)
	SuccessResponse(c, response)
}

// Route handles POST /chat/route
func (h *ChatHandler) Route(c *gin.Context) {
	var req RoutedChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "type and message are required")
		return
	}

	queryType := agent.QueryType(req.Type)
	switch queryType {
	case agent.QueryLearningPath, agent.QueryAssessment, agent.QueryContent, agent.QueryProgress:
	default:
		BadRequestResponse(c, "unknown query type: "+req.Type)
		return
	}

	response := h.orchestrator.RouteToSpecialist(c.Request.Context(), queryType, req.Message, req.SessionID)
	h.recordConversation(req.Type, response)
	SuccessResponse(c, response)
}

// LearningPath handles POST /learning-path
func (h *ChatHandler) LearningPath(c *gin.Context) {
	var req LearningPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "profile is required")
		return
	}

	path := h.personalizer.CreateLearningPath(req.Profile)
	SuccessResponse(c, path)
}

// Recommendations handles GET /recommendations
func (h *ChatHandler) Recommendations(c *gin.Context) {
	completionRate := intQuery(c, "completion_rate", 0)
	recommendations := h.personalizer.GetRecommendations(completionRate)
	SuccessResponse(c, recommendations)
}

func (h *ChatHandler) recordConversation(agentType string, response agent.ChatResponse) {
	if h.metrics == nil {
		return
	}
	status := "ok"
	if response.Degraded {
		status = "degraded"
	}
	h.metrics.RecordConversation(agentType, status)
}
