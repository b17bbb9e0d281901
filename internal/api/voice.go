package api

import (
	"encoding/base64"

	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/voice"
)

// VoiceHandler serves the speech endpoints. Audio crosses the wire as
// base64 inside the JSON envelope.
type VoiceHandler struct {
	service *voice.Service
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(service *voice.Service) *VoiceHandler {
	return &VoiceHandler{service: service}
}

// TranscribeRequest carries recorded audio for transcription
type TranscribeRequest struct {
	AudioBase64 string `json:"audio_base64" binding:"required"`
	Format      string `json:"format"`
}

// SynthesizeRequest asks for spoken audio of a text reply
type SynthesizeRequest struct {
	Text string `json:"text" binding:"required"`
}

// TranscribeResponse is the recognized text
type TranscribeResponse struct {
	Transcript string `json:"transcript"`
}

// SynthesizeResponse is the rendered speech audio
type SynthesizeResponse struct {
	AudioBase64 string `json:"audio_base64"`
	ContentType string `json:"content_type"`
}

// Transcribe handles POST /voice/transcribe
func (h *VoiceHandler) Transcribe(c *gin.Context) {
	var req TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "audio_base64 is required")
		return
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		BadRequestResponse(c, "audio_base64 is not valid base64")
		return
	}

	transcript, err := h.service.Transcribe(c.Request.Context(), audio, req.Format)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, TranscribeResponse{Transcript: transcript})
}

// Synthesize handles POST /voice/synthesize
func (h *VoiceHandler) Synthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "text is required")
		return
	}

	audio, err := h.service.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, SynthesizeResponse{
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		ContentType: "audio/mpeg",
	})
}
