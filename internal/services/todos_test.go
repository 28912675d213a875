package services

import (
	"testing"
	"time"

	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubScheduler struct {
	scheduled []uuid.UUID
}

func (s *stubScheduler) ScheduleDueReminder(todo *models.Todo) error {
	s.scheduled = append(s.scheduled, todo.ID)
	return nil
}

func newTestTodoService() (*TodoServiceImpl, *stubScheduler) {
	scheduler := &stubScheduler{}
	return NewTodoService(NewNotificationService(), scheduler), scheduler
}

func TestCreateTodoDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc, scheduler := newTestTodoService()
	creator := createTestUser(t, db, "creator@example.com")

	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{Title: "  Buy milk  "})
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", todo.Title)
	assert.Equal(t, models.StatusPending, todo.Status)
	assert.Equal(t, models.PriorityMedium, todo.Priority)
	assert.Equal(t, creator.ID, todo.CreatorID)
	assert.Equal(t, creator.ID, todo.AssigneeID)
	assert.Equal(t, 1, todo.Position)
	assert.Empty(t, scheduler.scheduled)

	// No notification for a self-assigned creation.
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateTodoValidation(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "validate@example.com")

	_, err := svc.CreateTodo(db, creator, CreateTodoRequest{Title: "   "})
	var verr ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.CreateTodo(db, creator, CreateTodoRequest{Title: "x", Priority: "CRITICAL"})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	past := time.Now().Add(-time.Hour)
	_, err = svc.CreateTodo(db, creator, CreateTodoRequest{Title: "x", DueDate: &past})
	assert.ErrorIs(t, err, ErrPastDueDate)

	_, err = svc.CreateTodo(db, creator, CreateTodoRequest{Title: "x", AssigneeID: "not-a-uuid"})
	assert.ErrorIs(t, err, ErrBadAssignee)

	_, err = svc.CreateTodo(db, creator, CreateTodoRequest{
		Title:      "x",
		AssigneeID: uuid.Must(uuid.NewV4()).String(),
	})
	assert.ErrorIs(t, err, ErrBadAssignee)
}

func TestCreateTodoRejectsInactiveAssignee(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "c@example.com")
	assignee := createTestUser(t, db, "inactive@example.com")

	require.NoError(t, db.Model(assignee).Update("is_active", false).Error)

	_, err := svc.CreateTodo(db, creator, CreateTodoRequest{
		Title:      "x",
		AssigneeID: assignee.ID.String(),
	})
	assert.ErrorIs(t, err, ErrBadAssignee)
}

func TestCreateTodoAssignsPositionPerAssignee(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	first, err := svc.CreateTodo(db, alice, CreateTodoRequest{Title: "a1"})
	require.NoError(t, err)
	second, err := svc.CreateTodo(db, alice, CreateTodoRequest{Title: "a2"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)

	// Positions are tracked per assignee, not globally.
	other, err := svc.CreateTodo(db, bob, CreateTodoRequest{Title: "b1"})
	require.NoError(t, err)
	assert.Equal(t, 1, other.Position)
}

func TestCreateTodoNotifiesAssignee(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "notify-c@example.com")
	assignee := createTestUser(t, db, "notify-a@example.com")

	_, err := svc.CreateTodo(db, creator, CreateTodoRequest{
		Title:      "Handoff",
		AssigneeID: assignee.ID.String(),
	})
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, assignee.ID, notifications[0].UserID)
	assert.Equal(t, models.NotificationTodoAssigned, notifications[0].Type)
}

func TestCreateTodoSchedulesReminder(t *testing.T) {
	db := setupTestDB(t)
	svc, scheduler := newTestTodoService()
	creator := createTestUser(t, db, "remind@example.com")

	due := time.Now().Add(24 * time.Hour)
	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{Title: "x", DueDate: &due})
	require.NoError(t, err)

	require.Len(t, scheduler.scheduled, 1)
	assert.Equal(t, todo.ID, scheduler.scheduled[0])
}

func TestUpdateTodoEmptyDiff(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "diff@example.com")

	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{Title: "Same"})
	require.NoError(t, err)

	_, err = svc.UpdateTodo(db, creator.ID, todo.ID, UpdateTodoRequest{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	// Fields matching stored state do not count as changes.
	same := "Same"
	_, err = svc.UpdateTodo(db, creator.ID, todo.ID, UpdateTodoRequest{Title: &same})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateTodoForbiddenForStrangers(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "f-creator@example.com")
	stranger := createTestUser(t, db, "f-stranger@example.com")

	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{Title: "mine"})
	require.NoError(t, err)

	title := "stolen"
	_, err = svc.UpdateTodo(db, stranger.ID, todo.ID, UpdateTodoRequest{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateTodoCompletedStampsAndClears(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "stamp@example.com")

	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{Title: "Finish"})
	require.NoError(t, err)

	completed := string(models.StatusCompleted)
	updated, err := svc.UpdateTodo(db, creator.ID, todo.ID, UpdateTodoRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	// Moving away from COMPLETED clears the stamp.
	pending := string(models.StatusPending)
	updated, err = svc.UpdateTodo(db, creator.ID, todo.ID, UpdateTodoRequest{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Nil(t, updated.CompletedAt)
}

func TestUpdateTodoInvalidStatus(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "badstatus@example.com")

	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{Title: "x"})
	require.NoError(t, err)

	bad := "DONE"
	_, err = svc.UpdateTodo(db, creator.ID, todo.ID, UpdateTodoRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateTodoNotifications(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "un-creator@example.com")
	assignee := createTestUser(t, db, "un-assignee@example.com")

	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{
		Title:      "Shared",
		AssigneeID: assignee.ID.String(),
	})
	require.NoError(t, err)
	require.NoError(t, db.Where("1 = 1").Delete(&models.Notification{}).Error)

	// A field change by the creator notifies the assignee.
	title := "Renamed"
	_, err = svc.UpdateTodo(db, creator.ID, todo.ID, UpdateTodoRequest{Title: &title})
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, assignee.ID, notifications[0].UserID)
	assert.Equal(t, models.NotificationTodoUpdated, notifications[0].Type)

	require.NoError(t, db.Where("1 = 1").Delete(&models.Notification{}).Error)

	// Completion by the creator produces a completion notification.
	completed := string(models.StatusCompleted)
	_, err = svc.UpdateTodo(db, creator.ID, todo.ID, UpdateTodoRequest{Status: &completed})
	require.NoError(t, err)

	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTodoCompleted, notifications[0].Type)

	require.NoError(t, db.Where("1 = 1").Delete(&models.Notification{}).Error)

	// Completion by the assignee themselves is suppressed.
	pending := string(models.StatusPending)
	_, err = svc.UpdateTodo(db, assignee.ID, todo.ID, UpdateTodoRequest{Status: &pending})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateTodoReassignmentNotifiesNewAssignee(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "re-creator@example.com")
	next := createTestUser(t, db, "re-next@example.com")

	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{Title: "Handover"})
	require.NoError(t, err)

	nextID := next.ID.String()
	updated, err := svc.UpdateTodo(db, creator.ID, todo.ID, UpdateTodoRequest{AssigneeID: &nextID})
	require.NoError(t, err)
	assert.Equal(t, next.ID, updated.AssigneeID)

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, next.ID, notifications[0].UserID)
	assert.Equal(t, models.NotificationTodoAssigned, notifications[0].Type)
}

func TestUpdatePosition(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "pos@example.com")

	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{Title: "Move me"})
	require.NoError(t, err)

	updated, err := svc.UpdatePosition(db, creator.ID, todo.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Position)

	_, err = svc.UpdatePosition(db, creator.ID, todo.ID, 5)
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	stranger := createTestUser(t, db, "pos-stranger@example.com")
	_, err = svc.UpdatePosition(db, stranger.ID, todo.ID, 1)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteTodoCreatorOnly(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "del-creator@example.com")
	assignee := createTestUser(t, db, "del-assignee@example.com")

	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{
		Title:      "Doomed",
		AssigneeID: assignee.ID.String(),
	})
	require.NoError(t, err)

	// The assignee can touch the todo but not delete it.
	err = svc.DeleteTodo(db, assignee.ID, todo.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.DeleteTodo(db, creator.ID, todo.ID))

	err = db.First(&models.Todo{}, "id = ?", todo.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteTodoCascades(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	creator := createTestUser(t, db, "cascade@example.com")
	assignee := createTestUser(t, db, "cascade-a@example.com")

	todo, err := svc.CreateTodo(db, creator, CreateTodoRequest{
		Title:      "With attachments",
		AssigneeID: assignee.ID.String(),
	})
	require.NoError(t, err)

	file := models.File{
		ID:           uuid.Must(uuid.NewV4()),
		StoredName:   "stored-name.txt",
		OriginalName: "name.txt",
		Path:         "/nonexistent/stored-name.txt",
		Size:         12,
		MimeType:     "text/plain",
		TodoID:       &todo.ID,
		UploadedByID: creator.ID,
	}
	require.NoError(t, db.Create(&file).Error)

	require.NoError(t, svc.DeleteTodo(db, creator.ID, todo.ID))

	var fileCount int64
	require.NoError(t, db.Model(&models.File{}).Where("todo_id = ?", todo.ID).Count(&fileCount).Error)
	assert.Zero(t, fileCount)

	var linked int64
	require.NoError(t, db.Model(&models.Notification{}).Where("todo_id = ?", todo.ID).Count(&linked).Error)
	assert.Zero(t, linked)

	// The deletion notice for the assignee survives the cascade.
	var deleted []models.Notification
	require.NoError(t, db.Where("user_id = ?", assignee.ID).Find(&deleted).Error)
	require.NotEmpty(t, deleted)
	assert.Equal(t, "Todo deleted", deleted[len(deleted)-1].Title)
}

func TestListTodosScopedToParticipant(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	alice := createTestUser(t, db, "scope-alice@example.com")
	bob := createTestUser(t, db, "scope-bob@example.com")

	_, err := svc.CreateTodo(db, alice, CreateTodoRequest{Title: "alice 1"})
	require.NoError(t, err)
	_, err = svc.CreateTodo(db, alice, CreateTodoRequest{
		Title:      "shared",
		AssigneeID: bob.ID.String(),
	})
	require.NoError(t, err)
	_, err = svc.CreateTodo(db, bob, CreateTodoRequest{Title: "bob 1"})
	require.NoError(t, err)

	todos, total, err := svc.ListTodos(db, alice.ID, TodoFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, todos, 2)

	// Bob sees his own plus the one assigned to him.
	_, total, err = svc.ListTodos(db, bob.ID, TodoFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestListTodosFilters(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	user := createTestUser(t, db, "filter@example.com")

	_, err := svc.CreateTodo(db, user, CreateTodoRequest{Title: "low", Priority: "LOW"})
	require.NoError(t, err)
	todo, err := svc.CreateTodo(db, user, CreateTodoRequest{Title: "urgent", Priority: "URGENT"})
	require.NoError(t, err)

	completed := string(models.StatusCompleted)
	_, err = svc.UpdateTodo(db, user.ID, todo.ID, UpdateTodoRequest{Status: &completed})
	require.NoError(t, err)

	todos, total, err := svc.ListTodos(db, user.ID, TodoFilter{Priority: "URGENT"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, todos, 1)
	assert.Equal(t, "urgent", todos[0].Title)

	_, total, err = svc.ListTodos(db, user.ID, TodoFilter{Status: "COMPLETED"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, _, err = svc.ListTodos(db, user.ID, TodoFilter{Status: "nonsense"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, _, err = svc.ListTodos(db, user.ID, TodoFilter{Priority: "nonsense"})
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestListTodosSortWhitelist(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestTodoService()
	user := createTestUser(t, db, "sort@example.com")

	_, err := svc.CreateTodo(db, user, CreateTodoRequest{Title: "b"})
	require.NoError(t, err)
	_, err = svc.CreateTodo(db, user, CreateTodoRequest{Title: "a"})
	require.NoError(t, err)

	todos, _, err := svc.ListTodos(db, user.ID, TodoFilter{SortBy: "title", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "a", todos[0].Title)

	// Unknown sort columns fall back instead of reaching the SQL.
	_, _, err = svc.ListTodos(db, user.ID, TodoFilter{SortBy: "1; DROP TABLE todos"})
	assert.NoError(t, err)
}
