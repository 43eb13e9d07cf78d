package handler

import (
	"net/http"
	"strconv"

	"lifeflow-server/internal/domain/notification"
	"lifeflow-server/internal/services"
	"lifeflow-server/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)

	var (
		items []notification.Notification
		total int64
		err   error
	)
	switch {
	case c.Query("unread") == "true":
		items, total, err = h.service.ListUnread(c.Request.Context(), userID, page, limit)
	case c.Query("type") != "":
		items, total, err = h.service.ListByType(c.Request.Context(), userID, notification.Type(c.Query("type")), page, limit)
	default:
		items, total, err = h.service.List(c.Request.Context(), userID, page, limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]httpdto.NotificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, httpdto.ToNotificationResponse(n))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPaginated(resp, total, page, limit)))
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.service.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"unread": count}))
}

func (h *NotificationHandler) Summary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(summary))
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid notification id", "INVALID_REQUEST"))
		return
	}

	n, err := h.service.MarkAsRead(c.Request.Context(), userID, notificationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToNotificationResponse(n)))
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid notification id", "INVALID_REQUEST"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, notificationID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": true}))
}

// ClearOld deletes the caller's notifications past the retention window.
// An optional days query overrides the default.
func (h *NotificationHandler) ClearOld(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	days := 0
	if v := c.Query("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid days", "INVALID_REQUEST"))
			return
		}
		days = parsed
	}

	deleted, err := h.service.DeleteOld(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": deleted}))
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"marked_read": updated}))
}
