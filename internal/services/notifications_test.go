package services

import (
	"testing"

	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{
		ID:       uuid.Must(uuid.NewV4()),
		Email:    email,
		Name:     "Test User",
		Password: "hash",
		Role:     models.RoleUser,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestEmitCreatesNotification(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService()

	recipient := createTestUser(t, db, "recipient@example.com")
	actor := createTestUser(t, db, "actor@example.com")

	todoID := uuid.Must(uuid.NewV4())
	svc.Emit(db, recipient.ID, actor.ID, &todoID,
		models.NotificationTodoAssigned, "New todo assigned", "You have been assigned",
		map[string]interface{}{"priority": "HIGH"})

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)

	n := notifications[0]
	assert.Equal(t, recipient.ID, n.UserID)
	assert.Equal(t, models.NotificationTodoAssigned, n.Type)
	assert.False(t, n.IsRead)
	assert.Contains(t, n.Metadata, "HIGH")
	require.NotNil(t, n.TodoID)
	assert.Equal(t, todoID, *n.TodoID)
}

func TestEmitSuppressesSelfNotification(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService()

	user := createTestUser(t, db, "self@example.com")

	svc.Emit(db, user.ID, user.ID, nil,
		models.NotificationTodoUpdated, "Todo updated", "msg", nil)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitSwallowsStoreFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService()

	recipient := createTestUser(t, db, "r@example.com")
	actor := createTestUser(t, db, "a@example.com")

	// Dropping the table makes the insert fail; Emit must not panic.
	require.NoError(t, db.Migrator().DropTable(&models.Notification{}))

	assert.NotPanics(t, func() {
		svc.Emit(db, recipient.ID, actor.ID, nil,
			models.NotificationTodoUpdated, "Todo updated", "msg", nil)
	})
}

func TestListNotifications(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService()

	recipient := createTestUser(t, db, "list@example.com")
	actor := createTestUser(t, db, "list-actor@example.com")
	other := createTestUser(t, db, "list-other@example.com")

	for i := 0; i < 3; i++ {
		svc.Emit(db, recipient.ID, actor.ID, nil,
			models.NotificationTodoUpdated, "Todo updated", "msg", nil)
	}
	svc.Emit(db, other.ID, actor.ID, nil,
		models.NotificationTodoUpdated, "Todo updated", "msg", nil)

	notifications, total, err := svc.ListNotifications(db, recipient.ID, false, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, notifications, 3)

	// Pagination clamps bad values instead of failing.
	notifications, total, err = svc.ListNotifications(db, recipient.ID, false, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, notifications, 3)
}

func TestListNotificationsUnreadOnly(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService()

	recipient := createTestUser(t, db, "unread@example.com")
	actor := createTestUser(t, db, "unread-actor@example.com")

	svc.Emit(db, recipient.ID, actor.ID, nil,
		models.NotificationTodoUpdated, "first", "msg", nil)
	svc.Emit(db, recipient.ID, actor.ID, nil,
		models.NotificationTodoUpdated, "second", "msg", nil)

	var first models.Notification
	require.NoError(t, db.Where("title = ?", "first").First(&first).Error)
	require.NoError(t, svc.MarkRead(db, recipient.ID, first.ID))

	unread, total, err := svc.ListNotifications(db, recipient.ID, true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, unread, 1)
	assert.Equal(t, "second", unread[0].Title)
}

func TestUnreadCount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService()

	recipient := createTestUser(t, db, "count@example.com")
	actor := createTestUser(t, db, "count-actor@example.com")

	count, err := svc.UnreadCount(db, recipient.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	svc.Emit(db, recipient.ID, actor.ID, nil,
		models.NotificationTodoAssigned, "t", "m", nil)

	count, err = svc.UnreadCount(db, recipient.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMarkRead(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService()

	recipient := createTestUser(t, db, "read@example.com")
	actor := createTestUser(t, db, "read-actor@example.com")
	stranger := createTestUser(t, db, "read-stranger@example.com")

	svc.Emit(db, recipient.ID, actor.ID, nil,
		models.NotificationTodoAssigned, "t", "m", nil)

	var n models.Notification
	require.NoError(t, db.First(&n).Error)

	// Another user cannot mark it.
	err := svc.MarkRead(db, stranger.ID, n.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, svc.MarkRead(db, recipient.ID, n.ID))

	require.NoError(t, db.First(&n, "id = ?", n.ID).Error)
	assert.True(t, n.IsRead)
	assert.NotNil(t, n.ReadAt)

	// Marking again is a no-op.
	require.NoError(t, svc.MarkRead(db, recipient.ID, n.ID))
}

func TestMarkAllRead(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService()

	recipient := createTestUser(t, db, "all@example.com")
	actor := createTestUser(t, db, "all-actor@example.com")

	for i := 0; i < 3; i++ {
		svc.Emit(db, recipient.ID, actor.ID, nil,
			models.NotificationTodoUpdated, "t", "m", nil)
	}

	require.NoError(t, svc.MarkAllRead(db, recipient.ID))

	count, err := svc.UnreadCount(db, recipient.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteNotification(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService()

	recipient := createTestUser(t, db, "del@example.com")
	actor := createTestUser(t, db, "del-actor@example.com")
	stranger := createTestUser(t, db, "del-stranger@example.com")

	svc.Emit(db, recipient.ID, actor.ID, nil,
		models.NotificationTodoAssigned, "t", "m", nil)

	var n models.Notification
	require.NoError(t, db.First(&n).Error)

	err := svc.DeleteNotification(db, stranger.ID, n.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, svc.DeleteNotification(db, recipient.ID, n.ID))

	err = svc.DeleteNotification(db, recipient.ID, n.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
