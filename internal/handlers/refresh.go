package handlers

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"share-counts/internal/auth"
	"share-counts/internal/live"
	"share-counts/internal/models"
	"share-counts/internal/services"

	"github.com/gin-gonic/gin"
)

// Messages surfaced to the admin page.
const (
	msgFailedSecurity = "Failed security."
	msgNoPermission   = "You do not have permission."
	msgRefreshed      = "Share counts updated."
	msgAdded          = "New URL added; Share counts updated."
	msgDeleted        = "URL deleted; Share counts updated."
	msgStale          = "Share counts could not be fully refreshed."
)

// RefreshHandler is the entry point for the mutating refresh action: it
// authenticates the caller, applies the requested group mutation, forces a
// recompute through the counts service, and returns the rendered groups.
type RefreshHandler struct {
	registry  *services.GroupRegistry
	counts    *services.CountsService
	nonces    *auth.NonceService
	hub       *live.Hub
	settings  models.Settings
	utcOffset time.Duration
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(registry *services.GroupRegistry, counts *services.CountsService, nonces *auth.NonceService, hub *live.Hub, settings models.Settings, utcOffset time.Duration) *RefreshHandler {
	return &RefreshHandler{
		registry:  registry,
		counts:    counts,
		nonces:    nonces,
		hub:       hub,
		settings:  settings,
		utcOffset: utcOffset,
	}
}

// Refresh handles POST /api/counts/refresh.
func (h *RefreshHandler) Refresh(c *gin.Context) {
	contentID := c.PostForm("content_id")

	// Security checks come first; nothing below runs, and no state changes,
	// until both pass.
	if contentID == "" || !h.nonces.Verify(c.PostForm("token"), auth.RefreshAction(contentID)) {
		c.JSON(http.StatusForbidden, gin.H{
			"success":     false,
			"message":     msgFailedSecurity,
			"messageKind": "error",
		})
		return
	}

	if !auth.CanManage(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"success":     false,
			"message":     msgNoPermission,
			"messageKind": "error",
		})
		return
	}

	mutation := h.applyMutation(c, contentID)

	// Force the recompute even for pure adds and deletes so the response
	// reflects current data.
	record, refreshErr := h.counts.Refresh(c.Request.Context(), contentID)
	if record == nil {
		record = &models.ContentRecord{ContentID: contentID}
	}

	success := refreshErr == nil
	message := mutation + msgRefreshed
	kind := "success"
	if !success {
		message = mutation + msgStale
		kind = "error"
	}

	if success && h.hub != nil {
		h.hub.Broadcast(live.CountUpdate{
			ContentID: contentID,
			Total:     record.Total,
			UpdatedAt: h.timestamp(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        success,
		"message":        message,
		"messageKind":    kind,
		"timestamp":      h.timestamp(),
		"renderedGroups": h.renderGroups(record),
	})
}

// applyMutation dispatches the requested sub-operation and returns the
// message prefix for it. Invalid adds and deletes of missing or reserved
// groups fall through to a plain refresh; a group with an empty name or url
// is never created.
func (h *RefreshHandler) applyMutation(c *gin.Context, contentID string) string {
	groupName := strings.TrimSpace(c.PostForm("group_name"))
	groupURL := strings.TrimSpace(c.PostForm("group_url"))
	groupDelete := models.GroupID(c.PostForm("group_delete"))

	switch {
	case groupName != "" && groupURL != "":
		if _, err := h.registry.AddGroup(contentID, groupName, groupURL); err != nil {
			return ""
		}
		return "New URL added; "

	case groupDelete != "":
		err := h.registry.DeleteGroup(contentID, groupDelete)
		if errors.Is(err, services.ErrGroupNotFound) || errors.Is(err, services.ErrReservedGroup) {
			return ""
		}
		if err != nil {
			return ""
		}
		return "URL deleted; "
	}

	return ""
}

// timestamp formats the current server time adjusted by the configured
// offset, matching the admin page's display format.
func (h *RefreshHandler) timestamp() string {
	return time.Now().UTC().Add(h.utcOffset).Format("Jan 2, 2006 3:04pm")
}

// renderGroups builds the HTML fragments for the total group followed by
// every group in the record in display order.
func (h *RefreshHandler) renderGroups(record *models.ContentRecord) string {
	snapshot, err := record.Snapshot()
	if err != nil {
		snapshot = &models.CountSnapshot{}
	}

	rendered := h.renderCountGroup("total", "Total", "", record.Total, snapshot, false)

	groups, err := record.GroupSet()
	if err != nil {
		return rendered
	}
	for _, group := range groups.Ordered() {
		deletable := !group.ID.Reserved()
		rendered += h.renderCountGroup(string(group.ID), group.Name, group.URL, group.Total, group.Snapshot, deletable)
	}

	return rendered
}

// renderCountGroup builds one count group fragment.
func (h *RefreshHandler) renderCountGroup(id, name, url string, total int, snapshot *models.CountSnapshot, deletable bool) string {
	class := "count-group-closed"
	if id == "total" {
		class = "count-group-open"
	}
	if snapshot == nil {
		snapshot = &models.CountSnapshot{}
	}

	groupHTML := `
    <div class="count-group ` + class + ` ` + html.EscapeString(id) + `">
        <h3>` + html.EscapeString(name) + ` <span class="total">(` + fmt.Sprintf("%d", total) + `)</span>`

	if deletable {
		groupHTML += `
            <a href="#" class="share-counts-delete" data-group="` + html.EscapeString(id) + `" title="Delete count group">&times;</a>`
	}

	groupHTML += `
        </h3>
        <div class="count-details">`

	if url != "" {
		groupHTML += `
            <input type="text" value="` + html.EscapeString(url) + `" class="count-url" readonly />`
	}

	groupHTML += `
            <ul>
                <li>Facebook Total: <strong>` + fmt.Sprintf("%d", snapshot.FacebookTotal) + `</strong></li>
                <li>Facebook Likes: <strong>` + fmt.Sprintf("%d", snapshot.FacebookLikes) + `</strong></li>
                <li>Facebook Shares: <strong>` + fmt.Sprintf("%d", snapshot.FacebookShares) + `</strong></li>
                <li>Facebook Comments: <strong>` + fmt.Sprintf("%d", snapshot.FacebookComments) + `</strong></li>
                <li>Twitter: <strong>` + fmt.Sprintf("%d", snapshot.Twitter) + `</strong></li>
                <li>Pinterest: <strong>` + fmt.Sprintf("%d", snapshot.Pinterest) + `</strong></li>
                <li>LinkedIn: <strong>` + fmt.Sprintf("%d", snapshot.LinkedIn) + `</strong></li>
                <li>StumbleUpon: <strong>` + fmt.Sprintf("%d", snapshot.StumbleUpon) + `</strong></li>`

	if h.settings.ServiceEnabled("email") {
		groupHTML += `
                <li>Email: <strong>` + fmt.Sprintf("%d", snapshot.Email) + `</strong></li>`
	}

	groupHTML += `
            </ul>
        </div>
    </div>`

	return groupHTML
}
