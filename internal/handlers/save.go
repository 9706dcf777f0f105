package handlers

import (
	"log"
	"net/http"

	"share-counts/internal/auth"
	"share-counts/internal/services"

	"github.com/gin-gonic/gin"
)

// SaveHandler handles the content-save workflow: the display exclusion flag
// and the per-group disable markers. It is gated by the generic save nonce,
// not the per-content refresh nonce.
type SaveHandler struct {
	registry *services.GroupRegistry
	nonces   *auth.NonceService
}

// NewSaveHandler creates a new save handler
func NewSaveHandler(registry *services.GroupRegistry, nonces *auth.NonceService) *SaveHandler {
	return &SaveHandler{registry: registry, nonces: nonces}
}

// Save handles POST /api/counts/save. Every save is a full overwrite of the
// exclusion flag and the disable markers: absence of a checkbox means clear,
// not leave unchanged.
func (h *SaveHandler) Save(c *gin.Context) {
	contentID := c.PostForm("content_id")

	if contentID == "" || !h.nonces.Verify(c.PostForm("token"), auth.SaveAction) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": msgFailedSecurity, "messageKind": "error"})
		return
	}

	if !auth.CanManage(c) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": msgNoPermission, "messageKind": "error"})
		return
	}

	// Exclusion flag: presence means set, absence means clear.
	_, excluded := c.GetPostForm("excluded")
	if err := h.registry.SetExcluded(contentID, excluded); err != nil {
		log.Printf("Failed to save exclusion flag for %s: %v", contentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save.", "messageKind": "error"})
		return
	}

	// Disable markers: rebuild from the submitted disable[<id>] checkboxes.
	// Reserved groups are never offered disable controls; attempts on them
	// are ignored by the registry.
	record, err := h.registry.ListGroups(contentID)
	if err == nil {
		groups, err := record.GroupSet()
		if err == nil {
			submitted := c.PostFormMap("disable")
			for id := range groups {
				_, disabled := submitted[string(id)]
				if err := h.registry.SetDisabled(contentID, id, disabled); err != nil {
					log.Printf("Failed to save disable marker for %s/%s: %v", contentID, id, err)
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
