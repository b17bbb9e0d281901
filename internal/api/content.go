package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/content"
)

// ContentHandler serves the learning content endpoints
type ContentHandler struct {
	curator *content.Curator
}

// NewContentHandler creates a new content handler
func NewContentHandler(curator *content.Curator) *ContentHandler {
	return &ContentHandler{curator: curator}
}

// Categories handles GET /content/categories
func (h *ContentHandler) Categories(c *gin.Context) {
	SuccessResponse(c, h.curator.Categories())
}

// Category handles GET /content/categories/:category
func (h *ContentHandler) Category(c *gin.Context) {
	name := c.Param("category")
	category, found := h.curator.GetContentByCategory(name)
	if !found {
		NotFoundResponse(c, "unknown content category: "+name)
		return
	}
	SuccessResponse(c, category)
}

// Search handles GET /content/search
func (h *ContentHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		BadRequestResponse(c, "query parameter q is required")
		return
	}
	SuccessResponse(c, h.curator.SearchContent(query))
}

// Recommended handles GET /content/recommended
func (h *ContentHandler) Recommended(c *gin.Context) {
	role := c.Query("role")
	completed := c.QueryArray("completed")
	SuccessResponse(c, h.curator.GetRecommendedContent(role, completed))
}

// Stored handles GET /content/stored
func (h *ContentHandler) Stored(c *gin.Context) {
	prefix := c.Query("prefix")
	SuccessResponse(c, h.curator.ListStoredContent(c.Request.Context(), prefix))
}

// Stats handles GET /content/stats
func (h *ContentHandler) Stats(c *gin.Context) {
	SuccessResponse(c, h.curator.GetContentStats())
}
