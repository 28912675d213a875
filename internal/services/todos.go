package services

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"todo-app/backend/internal/models"
	"todo-app/backend/internal/policy"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// ReminderScheduler lets the todo service hand due-date reminders to
// the background queue without depending on the worker package.
type ReminderScheduler interface {
	ScheduleDueReminder(todo *models.Todo) error
}

type CreateTodoRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=200"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  string     `json:"assignee_id"`
}

// UpdateTodoRequest uses pointers so absent fields are distinguishable
// from zero values when computing the diff.
type UpdateTodoRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *string    `json:"assignee_id"`
}

type TodoFilter struct {
	Status     string
	Priority   string
	AssigneeID string
	CreatorID  string
	SortBy     string
	Order      string
	Page       int
	PageSize   int
}

type TodoService interface {
	CreateTodo(db *gorm.DB, creator *models.User, req CreateTodoRequest) (*models.Todo, error)
	GetTodoByID(db *gorm.DB, id uuid.UUID) (*models.Todo, error)
	ListTodos(db *gorm.DB, userID uuid.UUID, filter TodoFilter) ([]models.Todo, int64, error)
	UpdateTodo(db *gorm.DB, actorID, id uuid.UUID, req UpdateTodoRequest) (*models.Todo, error)
	UpdatePosition(db *gorm.DB, actorID, id uuid.UUID, position int) (*models.Todo, error)
	DeleteTodo(db *gorm.DB, actorID, id uuid.UUID) error
}

type TodoServiceImpl struct {
	notifier  NotificationService
	scheduler ReminderScheduler
}

func NewTodoService(notifier NotificationService, scheduler ReminderScheduler) *TodoServiceImpl {
	return &TodoServiceImpl{notifier: notifier, scheduler: scheduler}
}

var allowedSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"due_date":   true,
	"priority":   true,
	"position":   true,
	"title":      true,
	"status":     true,
}

func activeUser(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadAssignee
		}
		return nil, err
	}
	return &user, nil
}

// nextPosition computes (max position for assignee) + 1. Two parallel
// creations can race to the same value; ordering is a soft UI hint, so
// the duplicate is acceptable.
func nextPosition(db *gorm.DB, assigneeID uuid.UUID) (int, error) {
	var max int
	err := db.Model(&models.Todo{}).
		Where("assignee_id = ?", assigneeID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (s *TodoServiceImpl) CreateTodo(db *gorm.DB, creator *models.User, req CreateTodoRequest) (*models.Todo, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ValidationError("title is required")
	}

	priority := models.PriorityMedium
	if req.Priority != "" {
		priority = models.TodoPriority(req.Priority)
		if !priority.Valid() {
			return nil, ErrInvalidPriority
		}
	}

	if req.DueDate != nil && req.DueDate.Before(time.Now()) {
		return nil, ErrPastDueDate
	}

	assigneeID := creator.ID
	if req.AssigneeID != "" {
		parsed, err := uuid.FromString(req.AssigneeID)
		if err != nil {
			return nil, ErrBadAssignee
		}
		if parsed != creator.ID {
			if _, err := activeUser(db, parsed); err != nil {
				return nil, err
			}
		}
		assigneeID = parsed
	}

	position, err := nextPosition(db, assigneeID)
	if err != nil {
		return nil, err
	}

	todo := models.Todo{
		ID:          uuid.Must(uuid.NewV4()),
		Title:       title,
		Description: req.Description,
		Status:      models.StatusPending,
		Priority:    priority,
		DueDate:     req.DueDate,
		Position:    position,
		CreatorID:   creator.ID,
		AssigneeID:  assigneeID,
	}

	if err := db.Create(&todo).Error; err != nil {
		return nil, err
	}

	if todo.AssigneeID != todo.CreatorID {
		notifyTodoAssigned(db, s.notifier, &todo, creator.ID)
	}

	s.scheduleReminder(&todo)

	return &todo, nil
}

func (s *TodoServiceImpl) GetTodoByID(db *gorm.DB, id uuid.UUID) (*models.Todo, error) {
	var todo models.Todo
	err := db.Preload("Creator").Preload("Assignee").Preload("Files").
		First(&todo, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (s *TodoServiceImpl) ListTodos(db *gorm.DB, userID uuid.UUID, filter TodoFilter) ([]models.Todo, int64, error) {
	query := db.Model(&models.Todo{}).
		Where("creator_id = ? OR assignee_id = ?", userID, userID)

	if filter.Status != "" {
		if !models.TodoStatus(filter.Status).Valid() {
			return nil, 0, ErrInvalidStatus
		}
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		if !models.TodoPriority(filter.Priority).Valid() {
			return nil, 0, ErrInvalidPriority
		}
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.AssigneeID != "" {
		id, err := uuid.FromString(filter.AssigneeID)
		if err != nil {
			return nil, 0, ValidationError("invalid assignee id")
		}
		query = query.Where("assignee_id = ?", id)
	}
	if filter.CreatorID != "" {
		id, err := uuid.FromString(filter.CreatorID)
		if err != nil {
			return nil, 0, ValidationError("invalid creator id")
		}
		query = query.Where("creator_id = ?", id)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	if !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	var todos []models.Todo
	err := query.
		Preload("Assignee").Preload("Creator").
		Order(sortBy + " " + order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&todos).Error
	if err != nil {
		return nil, 0, err
	}

	return todos, total, nil
}

func (s *TodoServiceImpl) UpdateTodo(db *gorm.DB, actorID, id uuid.UUID, req UpdateTodoRequest) (*models.Todo, error) {
	var todo models.Todo
	if err := db.First(&todo, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if !policy.CanAccessTodo(actorID, &todo) {
		return nil, ErrForbidden
	}

	// Diff against the stored row: only changed fields are written.
	updates := map[string]interface{}{}
	var changed []string
	statusCompleted := false

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ValidationError("title is required")
		}
		if title != todo.Title {
			updates["title"] = title
			changed = append(changed, "title")
		}
	}

	if req.Description != nil && *req.Description != todo.Description {
		updates["description"] = *req.Description
		changed = append(changed, "description")
	}

	if req.Status != nil {
		status := models.TodoStatus(*req.Status)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		if status != todo.Status {
			updates["status"] = status
			changed = append(changed, "status")
			if status == models.StatusCompleted {
				now := time.Now()
				updates["completed_at"] = &now
				statusCompleted = true
			} else if todo.Status == models.StatusCompleted {
				updates["completed_at"] = gorm.Expr("NULL")
			}
		}
	}

	if req.Priority != nil {
		priority := models.TodoPriority(*req.Priority)
		if !priority.Valid() {
			return nil, ErrInvalidPriority
		}
		if priority != todo.Priority {
			updates["priority"] = priority
			changed = append(changed, "priority")
		}
	}

	if req.DueDate != nil {
		if todo.DueDate == nil || !req.DueDate.Equal(*todo.DueDate) {
			if req.DueDate.Before(time.Now()) {
				return nil, ErrPastDueDate
			}
			updates["due_date"] = req.DueDate
			changed = append(changed, "due_date")
		}
	}

	if req.AssigneeID != nil {
		assigneeID, err := uuid.FromString(*req.AssigneeID)
		if err != nil {
			return nil, ErrBadAssignee
		}
		if assigneeID != todo.AssigneeID {
			if _, err := activeUser(db, assigneeID); err != nil {
				return nil, err
			}
			updates["assignee_id"] = assigneeID
			changed = append(changed, "assignee_id")
		}
	}

	if len(updates) == 0 {
		return nil, ErrEmptyUpdate
	}

	if err := db.Model(&todo).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := db.First(&todo, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if newAssignee, ok := updates["assignee_id"]; ok {
		if assigneeID, ok := newAssignee.(uuid.UUID); ok && assigneeID != todo.CreatorID {
			notifyTodoAssigned(db, s.notifier, &todo, actorID)
		}
	} else if statusCompleted {
		notifyTodoCompleted(db, s.notifier, &todo, actorID)
	} else {
		notifyTodoUpdated(db, s.notifier, &todo, actorID, changed)
	}

	if containsField(changed, "due_date") {
		s.scheduleReminder(&todo)
	}

	return &todo, nil
}

func (s *TodoServiceImpl) UpdatePosition(db *gorm.DB, actorID, id uuid.UUID, position int) (*models.Todo, error) {
	var todo models.Todo
	if err := db.First(&todo, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if !policy.CanAccessTodo(actorID, &todo) {
		return nil, ErrForbidden
	}

	if position == todo.Position {
		return nil, ErrEmptyUpdate
	}

	if err := db.Model(&todo).Update("position", position).Error; err != nil {
		return nil, err
	}

	todo.Position = position
	return &todo, nil
}

func (s *TodoServiceImpl) DeleteTodo(db *gorm.DB, actorID, id uuid.UUID) error {
	var todo models.Todo
	if err := db.First(&todo, "id = ?", id).Error; err != nil {
		return err
	}

	if !policy.CanDeleteTodo(actorID, &todo) {
		return ErrForbidden
	}

	var files []models.File
	if err := db.Where("todo_id = ?", todo.ID).Find(&files).Error; err != nil {
		return err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("todo_id = ?", todo.ID).Delete(&models.File{}).Error; err != nil {
			return err
		}
		if err := tx.Where("todo_id = ?", todo.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&todo).Error
	})
	if err != nil {
		return err
	}

	// The catalog rows are gone; disk removal is best effort.
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove file %s from disk: %v", f.Path, err)
		}
	}

	notifyTodoDeleted(db, s.notifier, &todo, actorID)

	return nil
}

func (s *TodoServiceImpl) scheduleReminder(todo *models.Todo) {
	if s.scheduler == nil || todo.DueDate == nil {
		return
	}
	if err := s.scheduler.ScheduleDueReminder(todo); err != nil {
		log.Printf("Failed to schedule due reminder for todo %s: %v", todo.ID, err)
	}
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
