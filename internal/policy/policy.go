// Package policy holds the pure access decisions. No I/O happens here;
// callers fetch the records and surface 404s themselves.
package policy

import (
	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
)

// CanAccessUser allows a user to act on their own record, and admins
// to act on anyone's.
func CanAccessUser(actor *models.User, targetID uuid.UUID) bool {
	if actor == nil {
		return false
	}
	return actor.ID == targetID || actor.IsAdmin()
}

// CanAccessTodo covers both view and modify: creator and assignee
// share the same predicate. A missing todo denies.
func CanAccessTodo(actorID uuid.UUID, todo *models.Todo) bool {
	if todo == nil {
		return false
	}
	return actorID == todo.CreatorID || actorID == todo.AssigneeID
}

// CanDeleteTodo is creator-only.
func CanDeleteTodo(actorID uuid.UUID, todo *models.Todo) bool {
	if todo == nil {
		return false
	}
	return actorID == todo.CreatorID
}

// CanAccessFile allows the uploader, or a participant of the linked
// todo when there is one.
func CanAccessFile(actorID uuid.UUID, file *models.File, todo *models.Todo) bool {
	if file == nil {
		return false
	}
	if actorID == file.UploadedByID {
		return true
	}
	return CanAccessTodo(actorID, todo)
}

func IsAdmin(actor *models.User) bool {
	return actor != nil && actor.IsAdmin()
}
