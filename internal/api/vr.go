package api

import (
	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/vr"
)

// VRHandler serves the VR/AR training endpoints
type VRHandler struct {
	engine *vr.Engine
}

// NewVRHandler creates a new VR handler
func NewVRHandler(engine *vr.Engine) *VRHandler {
	return &VRHandler{engine: engine}
}

// LaunchRequest starts a VR session for an employee
type LaunchRequest struct {
	EmployeeID   string `json:"employee_id" binding:"required"`
	ExperienceID string `json:"experience_id" binding:"required"`
}

// TrackRequest reports session progress
type TrackRequest struct {
	ProgressPercent int `json:"progress_percent"`
}

// Experiences handles GET /vr/experiences
func (h *VRHandler) Experiences(c *gin.Context) {
	SuccessResponse(c, h.engine.ListExperiences())
}

// Experience handles GET /vr/experiences/:experience_id
func (h *VRHandler) Experience(c *gin.Context) {
	experienceID := c.Param("experience_id")
	experience, found := h.engine.GetExperience(experienceID)
	if !found {
		NotFoundResponse(c, "unknown experience: "+experienceID)
		return
	}
	SuccessResponse(c, experience)
}

// Launch handles POST /vr/sessions
func (h *VRHandler) Launch(c *gin.Context) {
	var req LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "employee_id and experience_id are required")
		return
	}

	result, err := h.engine.Launch(c.Request.Context(), req.EmployeeID, req.ExperienceID)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	CreatedResponse(c, result)
}

// Track handles PUT /vr/sessions/:session_id/progress
func (h *VRHandler) Track(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "invalid progress update")
		return
	}

	session, err := h.engine.TrackProgress(c.Request.Context(), sessionID, req.ProgressPercent)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, session)
}

// Complete handles POST /vr/sessions/:session_id/complete
func (h *VRHandler) Complete(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req vr.Completion
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "invalid completion")
		return
	}

	result, err := h.engine.Complete(c.Request.Context(), sessionID, req)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, result)
}

// Statistics handles GET /vr/statistics/:employee_id
func (h *VRHandler) Statistics(c *gin.Context) {
	employeeID := c.Param("employee_id")
	SuccessResponse(c, h.engine.GetStatistics(c.Request.Context(), employeeID))
}
