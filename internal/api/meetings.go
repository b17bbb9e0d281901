package api

import (
	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/scheduler"
)

// MeetingsHandler serves the meeting scheduling endpoints
type MeetingsHandler struct {
	scheduler *scheduler.Scheduler
}

// NewMeetingsHandler creates a new meetings handler
func NewMeetingsHandler(s *scheduler.Scheduler) *MeetingsHandler {
	return &MeetingsHandler{scheduler: s}
}

// RescheduleRequest moves an existing meeting
type RescheduleRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// SuggestRequest asks for meeting time suggestions
type SuggestRequest struct {
	Attendees       []string `json:"attendees"`
	DurationMinutes int      `json:"duration_minutes"`
	PreferredDays   int      `json:"preferred_days"`
}

// Upcoming handles GET /meetings/:employee_id
func (h *MeetingsHandler) Upcoming(c *gin.Context) {
	employeeID := c.Param("employee_id")
	SuccessResponse(c, h.scheduler.GetUpcomingMeetings(c.Request.Context(), employeeID))
}

// Schedule handles POST /meetings
func (h *MeetingsHandler) Schedule(c *gin.Context) {
	var req scheduler.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "invalid meeting request")
		return
	}

	meeting, err := h.scheduler.ScheduleMeeting(c.Request.Context(), req)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	CreatedResponse(c, meeting)
}

// Reschedule handles PUT /meetings/:employee_id/:meeting_id
func (h *MeetingsHandler) Reschedule(c *gin.Context) {
	employeeID := c.Param("employee_id")
	meetingID := c.Param("meeting_id")

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "date and time are required")
		return
	}

	meeting, err := h.scheduler.RescheduleMeeting(c.Request.Context(), employeeID, meetingID, req.Date, req.Time)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, meeting)
}

// Cancel handles DELETE /meetings/:employee_id/:meeting_id
func (h *MeetingsHandler) Cancel(c *gin.Context) {
	employeeID := c.Param("employee_id")
	meetingID := c.Param("meeting_id")

	meeting, err := h.scheduler.CancelMeeting(c.Request.Context(), employeeID, meetingID)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, meeting)
}

// Slots handles GET /meetings/slots
func (h *MeetingsHandler) Slots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		BadRequestResponse(c, "query parameter date is required")
		return
	}
	duration := intQuery(c, "duration_minutes", 30)
	SuccessResponse(c, h.scheduler.GetAvailableTimeSlots(date, duration))
}

// Suggest handles POST /meetings/suggest
func (h *MeetingsHandler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "invalid suggestion request")
		return
	}
	SuccessResponse(c, h.scheduler.SuggestMeetingTimes(req.Attendees, req.DurationMinutes, req.PreferredDays))
}
