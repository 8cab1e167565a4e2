// Package sse streams a user's notifications as server-sent events.
package sse

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rckrdmrd/glit-backend-sub002/cache"
	"github.com/rckrdmrd/glit-backend-sub002/config"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	"go.uber.org/zap"
)

const keepAlive = 30 * time.Second

// Handler handles the SSE endpoint.
type Handler struct {
	pubsub    cache.PubSub
	c         cache.Cache
	sec       config.SecurityConfig
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, c: c, sec: sec, logger: logger, keepAlive: keepAlive}
}

// token accepts either ?token= (EventSource cannot set headers) or a Bearer header.
func token(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func reject(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": message},
	})
}

// ServeSSE handles GET /sse. Every notification delivered to the caller is
// written as an "event: notification" frame carrying the JSON row.
func (h *Handler) ServeSSE(c *gin.Context) {
	tokenStr := token(c)
	if tokenStr == "" {
		reject(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing token")
		return
	}
	claims, ok := mw.CheckToken(c.Request.Context(), tokenStr, h.sec.JWTSecret, h.c)
	if !ok {
		reject(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session")
		return
	}

	ctx := c.Request.Context()
	msgCh, unsub, err := h.pubsub.Subscribe(ctx, notification.Channel(claims.UserID))
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.String("user_id", claims.UserID), zap.Error(err))
		reject(c, http.StatusInternalServerError, "INTERNAL_ERROR", "stream unavailable")
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"userId\":%q}\n\n", claims.UserID)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: notification\ndata: %s\n\n", msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-ctx.Done():
			return
		}
	}
}
