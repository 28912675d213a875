package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type NotificationService interface {
	// Emit is fire-and-forget: a failed insert is logged and swallowed
	// so the primary mutation it rides on never fails because of it.
	Emit(db *gorm.DB, recipientID, actorID uuid.UUID, todoID *uuid.UUID,
		nType models.NotificationType, title, message string, metadata map[string]interface{})

	ListNotifications(db *gorm.DB, userID uuid.UUID, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error)
	UnreadCount(db *gorm.DB, userID uuid.UUID) (int64, error)
	MarkRead(db *gorm.DB, userID, notificationID uuid.UUID) error
	MarkAllRead(db *gorm.DB, userID uuid.UUID) error
	DeleteNotification(db *gorm.DB, userID, notificationID uuid.UUID) error
}

type NotificationServiceImpl struct{}

func NewNotificationService() *NotificationServiceImpl {
	return &NotificationServiceImpl{}
}

func (s *NotificationServiceImpl) Emit(db *gorm.DB, recipientID, actorID uuid.UUID, todoID *uuid.UUID,
	nType models.NotificationType, title, message string, metadata map[string]interface{}) {

	// Never self-notify.
	if recipientID == actorID {
		return
	}

	var metadataJSON string
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err != nil {
			log.Printf("Failed to encode notification metadata: %v", err)
		} else {
			metadataJSON = string(data)
		}
	}

	notification := models.Notification{
		ID:       uuid.Must(uuid.NewV4()),
		Title:    title,
		Message:  message,
		Type:     nType,
		UserID:   recipientID,
		TodoID:   todoID,
		Metadata: metadataJSON,
	}

	if err := db.Create(&notification).Error; err != nil {
		log.Printf("Failed to create %s notification for user %s: %v", nType, recipientID, err)
	}
}

func (s *NotificationServiceImpl) ListNotifications(db *gorm.DB, userID uuid.UUID, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (s *NotificationServiceImpl) UnreadCount(db *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *NotificationServiceImpl) MarkRead(db *gorm.DB, userID, notificationID uuid.UUID) error {
	var notification models.Notification
	err := db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error
	if err != nil {
		return err
	}

	if notification.IsRead {
		return nil
	}

	now := time.Now()
	return db.Model(&notification).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": now,
	}).Error
}

func (s *NotificationServiceImpl) MarkAllRead(db *gorm.DB, userID uuid.UUID) error {
	now := time.Now()
	return db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error
}

func (s *NotificationServiceImpl) DeleteNotification(db *gorm.DB, userID, notificationID uuid.UUID) error {
	result := db.Where("id = ? AND user_id = ?", notificationID, userID).Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// notifyTodoAssigned and friends implement the trigger matrix. They
// are grouped here so the wording of each notification lives in one
// place.

func notifyTodoAssigned(db *gorm.DB, notifier NotificationService, todo *models.Todo, actorID uuid.UUID) {
	notifier.Emit(db, todo.AssigneeID, actorID, &todo.ID,
		models.NotificationTodoAssigned,
		"New todo assigned",
		fmt.Sprintf("You have been assigned to %q", todo.Title),
		map[string]interface{}{"priority": todo.Priority})
}

func notifyTodoUpdated(db *gorm.DB, notifier NotificationService, todo *models.Todo, actorID uuid.UUID, changed []string) {
	notifier.Emit(db, todo.AssigneeID, actorID, &todo.ID,
		models.NotificationTodoUpdated,
		"Todo updated",
		fmt.Sprintf("%q has been updated", todo.Title),
		map[string]interface{}{"changed_fields": changed})
}

func notifyTodoCompleted(db *gorm.DB, notifier NotificationService, todo *models.Todo, actorID uuid.UUID) {
	notifier.Emit(db, todo.AssigneeID, actorID, &todo.ID,
		models.NotificationTodoCompleted,
		"Todo completed",
		fmt.Sprintf("%q has been marked as completed", todo.Title),
		nil)
}

func notifyTodoDeleted(db *gorm.DB, notifier NotificationService, todo *models.Todo, actorID uuid.UUID) {
	// Deletion reuses the todo_updated type; the todo row is gone so
	// no todo reference is attached.
	notifier.Emit(db, todo.AssigneeID, actorID, nil,
		models.NotificationTodoUpdated,
		"Todo deleted",
		fmt.Sprintf("%q has been deleted", todo.Title),
		map[string]interface{}{"deleted": true})
}
