package services

import (
	"fmt"
	"time"

	"todo-app/backend/internal/cache"
	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// CachedNotificationService fronts the unread-count query with redis.
// Every mutation invalidates the recipient's counter; the counter is a
// hot badge query, everything else goes straight through.
type CachedNotificationService struct {
	inner NotificationService
	cache *cache.RedisCache
}

func NewCachedNotificationService(inner NotificationService, cacheInstance *cache.RedisCache) *CachedNotificationService {
	return &CachedNotificationService{inner: inner, cache: cacheInstance}
}

func unreadCountKey(userID uuid.UUID) string {
	return fmt.Sprintf("unread_count:%s", userID.String())
}

func (s *CachedNotificationService) Emit(db *gorm.DB, recipientID, actorID uuid.UUID, todoID *uuid.UUID,
	nType models.NotificationType, title, message string, metadata map[string]interface{}) {

	s.inner.Emit(db, recipientID, actorID, todoID, nType, title, message, metadata)
	s.cache.Delete(unreadCountKey(recipientID))
}

func (s *CachedNotificationService) ListNotifications(db *gorm.DB, userID uuid.UUID, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	return s.inner.ListNotifications(db, userID, unreadOnly, page, pageSize)
}

func (s *CachedNotificationService) UnreadCount(db *gorm.DB, userID uuid.UUID) (int64, error) {
	key := unreadCountKey(userID)

	var cached int64
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	}

	count, err := s.inner.UnreadCount(db, userID)
	if err != nil {
		return 0, err
	}

	s.cache.Set(key, count, time.Minute)

	return count, nil
}

func (s *CachedNotificationService) MarkRead(db *gorm.DB, userID, notificationID uuid.UUID) error {
	if err := s.inner.MarkRead(db, userID, notificationID); err != nil {
		return err
	}
	return s.cache.Delete(unreadCountKey(userID))
}

func (s *CachedNotificationService) MarkAllRead(db *gorm.DB, userID uuid.UUID) error {
	if err := s.inner.MarkAllRead(db, userID); err != nil {
		return err
	}
	return s.cache.Delete(unreadCountKey(userID))
}

func (s *CachedNotificationService) DeleteNotification(db *gorm.DB, userID, notificationID uuid.UUID) error {
	if err := s.inner.DeleteNotification(db, userID, notificationID); err != nil {
		return err
	}
	return s.cache.Delete(unreadCountKey(userID))
}
