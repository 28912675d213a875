package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Service-level sentinels. Handlers map these onto the HTTP taxonomy
// (401/403/404/400/409/500).
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email already exists")

	ErrForbidden   = errors.New("access denied")
	ErrEmptyUpdate = errors.New("no fields changed")

	ErrInvalidStatus   = errors.New("invalid status value")
	ErrInvalidPriority = errors.New("invalid priority value")
	ErrInvalidRole     = errors.New("invalid role value")
	ErrPastDueDate     = errors.New("due date must not be in the past")
	ErrBadAssignee     = errors.New("assignee not found or inactive")

	// ErrFileNotFound doubles as the access-denied answer for files so
	// denial is indistinguishable from absence.
	ErrFileNotFound = errors.New("file not found")
)

// ValidationError carries a human-readable message for malformed
// input; handlers map it to 400 wholesale.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// isUniqueViolation matches duplicate-key failures from the postgres
// and sqlite drivers. The email checks are check-then-insert, so a
// lost race surfaces here instead of at the pre-check.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

