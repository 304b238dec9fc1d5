package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inceCheng/GigaLike/domain"
	"github.com/inceCheng/GigaLike/internal/rest/request"
)

// MonitorHandler exposes the websocket registry for ops: presence queries,
// push tests, forced disconnects and stale-session cleanup.
type MonitorHandler struct {
	Registry domain.ConnectionRegistry
}

func NewMonitorHandler(reg domain.ConnectionRegistry) *MonitorHandler {
	return &MonitorHandler{Registry: reg}
}

// OnlineUsers lists every live session
func (h *MonitorHandler) OnlineUsers(c *gin.Context) {
	users := h.Registry.OnlineUsers()
	c.JSON(http.StatusOK, gin.H{
		"online_count": len(users),
		"users":        users,
	})
}

// Stats returns aggregate registry counters
func (h *MonitorHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Registry.Stats())
}

// UserInfo returns the live session snapshot of one user
func (h *MonitorHandler) UserInfo(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
		return
	}

	info, ok := h.Registry.UserInfo(userID)
	if !ok {
		c.JSON(http.StatusNotFound, ResponseError{Message: domain.ErrOffline.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// History returns the most recent connect/disconnect log entries
func (h *MonitorHandler) History(c *gin.Context) {
	limit := 50
	if raw, err := strconv.Atoi(c.Query("limit")); err == nil && raw > 0 {
		limit = raw
	}
	c.JSON(http.StatusOK, gin.H{"history": h.Registry.History(limit)})
}

// Disconnect force-closes a user's session
func (h *MonitorHandler) Disconnect(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
		return
	}

	reason := c.Query("reason")
	if reason == "" {
		reason = "管理员强制断开"
	}

	if !h.Registry.Disconnect(userID, reason) {
		c.JSON(http.StatusNotFound, ResponseError{Message: domain.ErrOffline.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Cleanup removes sessions that stopped heartbeating
func (h *MonitorHandler) Cleanup(c *gin.Context) {
	removed := h.Registry.CleanupStale()
	c.JSON(http.StatusOK, gin.H{"success": true, "removed": removed})
}

// Status reports whether the caller currently has a live push channel
func (h *MonitorHandler) Status(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID.(int64),
		"online":  h.Registry.IsOnline(userID.(int64)),
	})
}

// Test pushes a test frame to the caller's own session
func (h *MonitorHandler) Test(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	err := h.Registry.SendToUser(c.Request.Context(), userID.(int64), "TEST", gin.H{
		"message":   "测试推送",
		"timestamp": time.Now().UnixMilli(),
	})
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Broadcast pushes a frame to every live session
func (h *MonitorHandler) Broadcast(c *gin.Context) {
	var req request.Broadcast
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	h.Registry.Broadcast(c.Request.Context(), "BROADCAST", gin.H{
		"message":   req.Message,
		"timestamp": time.Now().UnixMilli(),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "recipients": h.Registry.OnlineCount()})
}
