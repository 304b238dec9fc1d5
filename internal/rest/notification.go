package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inceCheng/GigaLike/domain"
	"github.com/inceCheng/GigaLike/internal/rest/response"
)

// NotificationHandler represent the httphandler for notifications
type NotificationHandler struct {
	Usecase domain.NotificationUsecase
}

func NewNotificationHandler(uc domain.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{Usecase: uc}
}

// Fetch lists the caller's notifications, newest first
func (h *NotificationHandler) Fetch(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	q := domain.NotificationQuery{
		UserID:   userID.(int64),
		Type:     c.Query("type"),
		Page:     1,
		PageSize: 10,
	}
	if page, err := strconv.ParseInt(c.Query("page"), 10, 64); err == nil && page > 0 {
		q.Page = page
	}
	if size, err := strconv.ParseInt(c.Query("page_size"), 10, 64); err == nil && size > 0 && size <= 100 {
		q.PageSize = size
	}
	if raw := c.Query("is_read"); raw != "" {
		isRead, err := strconv.Atoi(raw)
		if err != nil || (isRead != domain.NotificationUnread && isRead != domain.NotificationRead) {
			c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
			return
		}
		q.IsRead = &isRead
	}

	items, total, err := h.Usecase.Fetch(c.Request.Context(), q)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	res := make([]response.Notification, 0, len(items))
	for i := range items {
		res = append(res, response.NewNotificationFromDomain(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": res,
		"total":         total,
		"page":          q.Page,
		"page_size":     q.PageSize,
	})
}

// UnreadCount returns the caller's unread notification count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	count, err := h.Usecase.UnreadCount(c.Request.Context(), userID.(int64))
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead marks a single notification of the caller as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
		return
	}

	if err := h.Usecase.MarkRead(c.Request.Context(), id, userID.(int64)); err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllRead marks all unread notifications of the caller as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	updated, err := h.Usecase.MarkAllRead(c.Request.Context(), userID.(int64))
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

// Delete removes a single notification of the caller
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
		return
	}

	if err := h.Usecase.Delete(c.Request.Context(), id, userID.(int64)); err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Cleanup trims the caller's notification history to the retention limit
func (h *NotificationHandler) Cleanup(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	deleted, err := h.Usecase.CleanOld(c.Request.Context(), userID.(int64))
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}
