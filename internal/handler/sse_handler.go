package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/decorhaus/storefront_api/internal/middleware"
	"github.com/decorhaus/storefront_api/internal/sse"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// SSEHandler handles Server-Sent Events for admin real-time updates.
type SSEHandler struct {
	hub    *sse.Hub
	admins middleware.AdminChecker
	secret string
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub, admins middleware.AdminChecker, sessionSecret string) *SSEHandler {
	return &SSEHandler{hub: hub, admins: admins, secret: sessionSecret}
}

// Stream handles GET /v1/admin/orders/stream?token=<session>
// EventSource API cannot set custom headers, so the session token is passed via query param.
func (h *SSEHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.Error(c, 401, "UNAUTHORIZED", "Missing token query parameter")
		return
	}

	claims, err := utils.ValidateSessionToken(token, h.secret)
	if err != nil {
		utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	isAdmin, err := h.admins.IsAdmin(c.Request.Context(), claims.UserID())
	if err != nil {
		respondError(c, err, "Failed to check admin access")
		return
	}
	if !isAdmin {
		utils.Error(c, 403, "FORBIDDEN", "Admin access required")
		return
	}

	clientID := fmt.Sprintf("admin-%s-%d", claims.UserID(), time.Now().UnixNano())

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	client := h.hub.Register(clientID)
	defer h.hub.Unregister(clientID)

	c.SSEvent("connected", gin.H{
		"clientId":  clientID,
		"message":   "SSE connection established",
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Str("user_id", claims.UserID()).Msg("Admin order stream started")

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("order", string(data))
			return true
		case <-time.After(30 * time.Second):
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
