package handlers

import (
	"net/http"

	"share-counts/internal/services"

	"github.com/gin-gonic/gin"
)

// CountsHandler exposes read-only access to a content record.
type CountsHandler struct {
	registry *services.GroupRegistry
}

// NewCountsHandler creates a new counts handler
func NewCountsHandler(registry *services.GroupRegistry) *CountsHandler {
	return &CountsHandler{registry: registry}
}

// GetCounts handles GET /api/counts/:content_id.
func (h *CountsHandler) GetCounts(c *gin.Context) {
	contentID := c.Param("content_id")

	record, err := h.registry.ListGroups(contentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load counts"})
		return
	}

	snapshot, err := record.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode counts"})
		return
	}
	groups, err := record.GroupSet()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode groups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content_id":   record.ContentID,
		"total":        record.Total,
		"counts":       snapshot,
		"groups":       groups.Ordered(),
		"excluded":     record.Excluded,
		"last_updated": record.LastUpdated,
	})
}

// HealthCheck handles GET /health.
func (h *CountsHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
