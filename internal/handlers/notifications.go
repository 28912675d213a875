package handlers

import (
	"net/http"
	"strconv"

	"todo-app/backend/internal/middleware"
	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	db                  *gorm.DB
	notificationService services.NotificationService
}

func NewNotificationHandler(db *gorm.DB, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{db: db, notificationService: notificationService}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.ListNotifications(h.db, user.ID, unreadOnly, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
	})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	count, err := h.notificationService.UnreadCount(h.db, user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notificationService.MarkRead(h.db, user.ID, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	if err := h.notificationService.MarkAllRead(h.db, user.ID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "all notifications marked as read"})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notificationService.DeleteNotification(h.db, user.ID, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "notification deleted"})
}
