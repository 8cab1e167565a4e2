package rest

import (
	"github.com/gin-gonic/gin"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
)

// NotificationHandler exposes the caller's notifications.
type NotificationHandler struct {
	svc *notification.Service
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(svc *notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List handles GET /api/notifications?unread=true&limit=&offset=.
func (h *NotificationHandler) List(c *gin.Context) {
	p, err := h.svc.List(c.Request.Context(), mw.GetUserID(c), c.Query("unread") == "true",
		queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

// UnreadCount handles GET /api/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"count": n})
}

// MarkRead handles POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	n, err := h.svc.MarkRead(c.Request.Context(), c.Param("id"), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, n)
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"updated": n})
}
