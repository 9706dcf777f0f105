package handlers

import (
	"crypto/subtle"
	"net/http"
	"os"

	"share-counts/internal/auth"

	"github.com/gin-gonic/gin"
)

// TokenHandler exchanges the admin password for a capability token and
// issues the anti-forgery nonces editors embed in their pages.
type TokenHandler struct {
	capabilities *auth.CapabilityService
	nonces       *auth.NonceService
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(capabilities *auth.CapabilityService, nonces *auth.NonceService) *TokenHandler {
	return &TokenHandler{capabilities: capabilities, nonces: nonces}
}

// getAdminPassword returns the admin password from environment or default
func getAdminPassword() string {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123" // Default password for development
	}
	return password
}

// IssueToken handles POST /api/auth/token.
func (h *TokenHandler) IssueToken(c *gin.Context) {
	password := c.PostForm("password")
	if subtle.ConstantTimeCompare([]byte(password), []byte(getAdminPassword())) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.capabilities.IssueToken(auth.RoleManager)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// IssueNonces handles GET /api/counts/nonce. Returns the per-content refresh
// nonce and the generic save nonce for an editor page.
func (h *TokenHandler) IssueNonces(c *gin.Context) {
	if !auth.CanManage(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": msgNoPermission})
		return
	}

	contentID := c.Query("content_id")
	if contentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_id is required"})
		return
	}

	refreshNonce, err := h.nonces.Create(auth.RefreshAction(contentID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create nonce"})
		return
	}
	saveNonce, err := h.nonces.Create(auth.SaveAction)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create nonce"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refresh_nonce": refreshNonce,
		"save_nonce":    saveNonce,
	})
}
