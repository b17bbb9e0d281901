package api

import (
	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/assessment"
	"github.com/easyonboard/easyonboard/internal/email"
	"github.com/easyonboard/easyonboard/internal/progress"
	"github.com/easyonboard/easyonboard/internal/scheduler"
	"github.com/easyonboard/easyonboard/pkg/metrics"
)

// NotificationsHandler serves the email notification endpoints
type NotificationsHandler struct {
	notifier    *email.Notifier
	tracker     *progress.Tracker
	assessments *assessment.Service
	scheduler   *scheduler.Scheduler
	metrics     *metrics.Metrics
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(notifier *email.Notifier, tracker *progress.Tracker, assessments *assessment.Service, s *scheduler.Scheduler, m *metrics.Metrics) *NotificationsHandler {
	return &NotificationsHandler{
		notifier:    notifier,
		tracker:     tracker,
		assessments: assessments,
		scheduler:   s,
		metrics:     m,
	}
}

// WelcomeRequest sends the first-day welcome email
type WelcomeRequest struct {
	Employee email.Employee `json:"employee" binding:"required"`
}

// ProgressEmailRequest sends a progress summary email
type ProgressEmailRequest struct {
	Employee   email.Employee `json:"employee" binding:"required"`
	EmployeeID string         `json:"employee_id" binding:"required"`
}

// AssessmentEmailRequest reminds an employee about a pending assessment
type AssessmentEmailRequest struct {
	Employee     email.Employee `json:"employee" binding:"required"`
	AssessmentID string         `json:"assessment_id" binding:"required"`
	Role         string         `json:"role"`
}

// MeetingEmailRequest reminds an employee about an upcoming meeting
type MeetingEmailRequest struct {
	Employee   email.Employee `json:"employee" binding:"required"`
	EmployeeID string         `json:"employee_id" binding:"required"`
	MeetingID  string         `json:"meeting_id" binding:"required"`
}

// Welcome handles POST /notifications/welcome
func (h *NotificationsHandler) Welcome(c *gin.Context) {
	var req WelcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "employee is required")
		return
	}

	result := h.notifier.SendWelcome(c.Request.Context(), req.Employee)
	h.recordEmail("welcome", result)
	SuccessResponse(c, result)
}

// Progress handles POST /notifications/progress
func (h *NotificationsHandler) Progress(c *gin.Context) {
	var req ProgressEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "employee and employee_id are required")
		return
	}

	record, _ := h.tracker.GetProgress(c.Request.Context(), req.EmployeeID)
	result := h.notifier.SendProgressUpdate(c.Request.Context(), req.Employee, record)
	h.recordEmail("progress_update", result)
	SuccessResponse(c, result)
}

// Assessment handles POST /notifications/assessment
func (h *NotificationsHandler) Assessment(c *gin.Context) {
	var req AssessmentEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "employee and assessment_id are required")
		return
	}

	var target *assessment.Assessment
	for _, a := range h.assessments.GetAvailableAssessments(req.Role) {
		if a.ID == req.AssessmentID {
			target = &a
			break
		}
	}
	if target == nil {
		NotFoundResponse(c, "unknown assessment: "+req.AssessmentID)
		return
	}

	result := h.notifier.SendAssessmentReminder(c.Request.Context(), req.Employee, *target)
	h.recordEmail("assessment_reminder", result)
	SuccessResponse(c, result)
}

// Meeting handles POST /notifications/meeting
func (h *NotificationsHandler) Meeting(c *gin.Context) {
	var req MeetingEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "employee, employee_id, and meeting_id are required")
		return
	}

	var target *scheduler.Meeting
	for _, m := range h.scheduler.GetUpcomingMeetings(c.Request.Context(), req.EmployeeID) {
		if m.ID == req.MeetingID {
			target = &m
			break
		}
	}
	if target == nil {
		NotFoundResponse(c, "unknown meeting: "+req.MeetingID)
		return
	}

	result := h.notifier.SendMeetingReminder(c.Request.Context(), req.Employee, *target)
	h.recordEmail("meeting_reminder", result)
	SuccessResponse(c, result)
}

func (h *NotificationsHandler) recordEmail(template string, result email.SendResult) {
	if h.metrics == nil {
		return
	}
	status := "sent"
	if !result.Sent {
		status = "skipped"
	}
	h.metrics.RecordEmailSent(template, status)
}
