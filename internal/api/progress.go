package api

import (
	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/agent"
	"github.com/easyonboard/easyonboard/internal/progress"
)

// ProgressHandler serves the onboarding progress endpoints
type ProgressHandler struct {
	tracker *progress.Tracker
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(tracker *progress.Tracker) *ProgressHandler {
	return &ProgressHandler{tracker: tracker}
}

// InitializeRequest creates a progress record for a new employee
type InitializeRequest struct {
	EmployeeID string            `json:"employee_id" binding:"required"`
	Profile    agent.UserProfile `json:"profile"`
}

// CompleteModuleRequest marks a module as finished
type CompleteModuleRequest struct {
	ModuleName       string `json:"module_name" binding:"required"`
	TimeSpentMinutes int    `json:"time_spent_minutes"`
}

// progressView wraps a record with its degradation flag
type progressView struct {
	progress.Record
	Degraded bool `json:"degraded"`
}

// Initialize handles POST /progress
func (h *ProgressHandler) Initialize(c *gin.Context) {
	var req InitializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "employee_id is required")
		return
	}

	record := h.tracker.InitializeProgress(c.Request.Context(), req.EmployeeID, req.Profile)
	CreatedResponse(c, record)
}

// Get handles GET /progress/:employee_id
func (h *ProgressHandler) Get(c *gin.Context) {
	employeeID := c.Param("employee_id")
	record, degraded := h.tracker.GetProgress(c.Request.Context(), employeeID)
	SuccessResponse(c, progressView{Record: record, Degraded: degraded})
}

// CompleteModule handles POST /progress/:employee_id/modules
func (h *ProgressHandler) CompleteModule(c *gin.Context) {
	employeeID := c.Param("employee_id")

	var req CompleteModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "module_name is required")
		return
	}

	record, err := h.tracker.CompleteModule(c.Request.Context(), employeeID, req.ModuleName, req.TimeSpentMinutes)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, record)
}

// Analytics handles GET /progress/:employee_id/analytics
func (h *ProgressHandler) Analytics(c *gin.Context) {
	employeeID := c.Param("employee_id")
	summary := h.tracker.GetAnalyticsSummary(c.Request.Context(), employeeID)
	SuccessResponse(c, summary)
}

// WeeklyChart handles GET /progress/:employee_id/weekly-chart
func (h *ProgressHandler) WeeklyChart(c *gin.Context) {
	SuccessResponse(c, h.tracker.GetWeeklyChartData())
}
