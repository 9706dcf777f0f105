package handlers

import (
	"net/http"

	"share-counts/internal/auth"
	"share-counts/internal/config"

	"github.com/gin-gonic/gin"
)

// SettingsHandler exposes the sanitized settings record.
type SettingsHandler struct {
	store *config.Store
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store *config.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// GetSettings handles GET /api/settings. The record carries API keys, so
// reads are gated the same as writes.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	if !auth.CanManage(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": msgNoPermission})
		return
	}

	settings, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/settings. The raw payload is sanitized
// whole; it never propagates further untyped.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	if !auth.CanManage(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": msgNoPermission})
		return
	}

	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings payload"})
		return
	}

	settings, err := h.store.Save(raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}
