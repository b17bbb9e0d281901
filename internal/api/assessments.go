package api

import (
	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/assessment"
	"github.com/easyonboard/easyonboard/pkg/metrics"
)

// AssessmentsHandler serves the knowledge assessment endpoints
type AssessmentsHandler struct {
	service *assessment.Service
	metrics *metrics.Metrics
}

// NewAssessmentsHandler creates a new assessments handler
func NewAssessmentsHandler(service *assessment.Service, m *metrics.Metrics) *AssessmentsHandler {
	return &AssessmentsHandler{service: service, metrics: m}
}

// SubmitRequest carries an employee's answers for one assessment
type SubmitRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Answers    []int  `json:"answers" binding:"required"`
}

// List handles GET /assessments
func (h *AssessmentsHandler) List(c *gin.Context) {
	role := c.Query("role")
	SuccessResponse(c, h.service.GetAvailableAssessments(role))
}

// Questions handles GET /assessments/:assessment_id/questions
func (h *AssessmentsHandler) Questions(c *gin.Context) {
	assessmentID := c.Param("assessment_id")
	questions, err := h.service.GetQuestions(assessmentID)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, questions)
}

// Submit handles POST /assessments/:assessment_id/submit
func (h *AssessmentsHandler) Submit(c *gin.Context) {
	assessmentID := c.Param("assessment_id")

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "employee_id and answers are required")
		return
	}

	result, err := h.service.Submit(c.Request.Context(), req.EmployeeID, assessmentID, req.Answers)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	if h.metrics != nil {
		outcome := "failed"
		if result.Passed {
			outcome = "passed"
		}
		h.metrics.RecordAssessment(assessmentID, outcome)
	}
	SuccessResponse(c, result)
}

// History handles GET /assessments/history/:employee_id
func (h *AssessmentsHandler) History(c *gin.Context) {
	employeeID := c.Param("employee_id")
	SuccessResponse(c, h.service.GetHistory(c.Request.Context(), employeeID))
}
