package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"todo-app/backend/internal/models"
	"todo-app/backend/internal/services"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// ReminderScheduler implements services.ReminderScheduler on top of
// the job queue.
type ReminderScheduler struct {
	queue *JobQueue
	lead  time.Duration
}

func NewReminderScheduler(queue *JobQueue, lead time.Duration) *ReminderScheduler {
	return &ReminderScheduler{queue: queue, lead: lead}
}

func (s *ReminderScheduler) ScheduleDueReminder(todo *models.Todo) error {
	if todo.DueDate == nil {
		return nil
	}

	processAt := todo.DueDate.Add(-s.lead)
	if processAt.Before(time.Now()) {
		processAt = time.Now()
	}

	return s.queue.EnqueueAt(QueueReminders, JobTypeDueReminder, map[string]interface{}{
		"todo_id": todo.ID.String(),
	}, processAt)
}

// NewDueReminderHandler emits a due-soon notification to the assignee
// unless the todo was finished or deleted in the meantime.
func NewDueReminderHandler(db *gorm.DB, notifier services.NotificationService) JobHandler {
	return func(ctx context.Context, job *Job) error {
		todoIDStr, ok := job.Payload["todo_id"].(string)
		if !ok {
			return fmt.Errorf("due reminder job missing todo_id")
		}
		todoID, err := uuid.FromString(todoIDStr)
		if err != nil {
			return fmt.Errorf("due reminder job has invalid todo_id: %w", err)
		}

		var todo models.Todo
		if err := db.WithContext(ctx).First(&todo, "id = ?", todoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if todo.Status == models.StatusCompleted || todo.Status == models.StatusCancelled {
			return nil
		}
		if todo.DueDate == nil {
			return nil
		}

		// Emitter suppresses self-notifications; reminders come from
		// the system, so use the nil actor.
		notifier.Emit(db, todo.AssigneeID, uuid.Nil, &todo.ID,
			models.NotificationTodoDueSoon,
			"Todo due soon",
			fmt.Sprintf("%q is due at %s", todo.Title, todo.DueDate.Format(time.RFC3339)),
			map[string]interface{}{"due_date": todo.DueDate})

		return nil
	}
}

// NewUploadCleanupHandler sweeps the upload directory for objects the
// catalog no longer references. The catalog is the source of truth, so
// a row-less object is garbage.
func NewUploadCleanupHandler(db *gorm.DB, uploadDir string) JobHandler {
	return func(ctx context.Context, job *Job) error {
		entries, err := os.ReadDir(uploadDir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			var count int64
			err := db.WithContext(ctx).Model(&models.File{}).
				Where("stored_name = ?", entry.Name()).
				Count(&count).Error
			if err != nil {
				return err
			}

			if count == 0 {
				os.Remove(filepath.Join(uploadDir, entry.Name()))
			}
		}

		return nil
	}
}
