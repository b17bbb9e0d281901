package api

import (
	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/docs"
	"github.com/easyonboard/easyonboard/internal/queue"
	"github.com/easyonboard/easyonboard/pkg/metrics"
)

// DocumentsHandler serves the document ingestion endpoints. When a job
// queue is wired, ingestion runs asynchronously on the worker; without
// one, documents are processed inline.
type DocumentsHandler struct {
	processor *docs.Processor
	jobs      *queue.Queue
	metrics   *metrics.Metrics
}

// NewDocumentsHandler creates a new documents handler
func NewDocumentsHandler(processor *docs.Processor, jobs *queue.Queue, m *metrics.Metrics) *DocumentsHandler {
	return &DocumentsHandler{
		processor: processor,
		jobs:      jobs,
		metrics:   m,
	}
}

// IngestRequest names an uploaded object to extract text from
type IngestRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
}

// IngestAccepted acknowledges a queued ingestion job
type IngestAccepted struct {
	JobID     string `json:"job_id"`
	ObjectKey string `json:"object_key"`
	Status    string `json:"status"`
}

// Ingest handles POST /documents
func (h *DocumentsHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "object_key is required")
		return
	}

	if h.jobs != nil {
		job := queue.NewDocumentIngestionJob(req.ObjectKey)
		if err := h.jobs.Enqueue(c.Request.Context(), job); err != nil {
			ErrorResponseFromError(c, err)
			return
		}
		AcceptedResponse(c, IngestAccepted{
			JobID:     job.ID,
			ObjectKey: req.ObjectKey,
			Status:    string(job.Status),
		})
		return
	}

	document, err := h.processor.ProcessDocument(c.Request.Context(), req.ObjectKey)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordDocumentProcessed("failed")
		}
		ErrorResponseFromError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordDocumentProcessed("processed")
	}
	CreatedResponse(c, document)
}

// Job handles GET /documents/jobs/:job_id
func (h *DocumentsHandler) Job(c *gin.Context) {
	if h.jobs == nil {
		NotFoundResponse(c, "document ingestion queue is not configured")
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, job)
}

// List handles GET /documents
func (h *DocumentsHandler) List(c *gin.Context) {
	documents, err := h.processor.ListDocuments(c.Request.Context())
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, documents)
}

// Get handles GET /documents/:document_id
func (h *DocumentsHandler) Get(c *gin.Context) {
	document, err := h.processor.GetDocument(c.Request.Context(), c.Param("document_id"))
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}
	SuccessResponse(c, document)
}
