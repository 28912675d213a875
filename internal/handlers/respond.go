package handlers

import (
	"errors"
	"net/http"

	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Every response uses the same envelope:
// {success: bool, data?: ..., error?: {message}}.

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   gin.H{"message": message},
	})
}

// respondServiceError maps service sentinels onto the error taxonomy.
func respondServiceError(c *gin.Context, err error) {
	var validation services.ValidationError
	if errors.As(err, &validation) {
		respondError(c, http.StatusBadRequest, validation.Error())
		return
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, services.ErrFileNotFound):
		respondError(c, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrForbidden):
		respondError(c, http.StatusForbidden, "access denied")
	case errors.Is(err, services.ErrEmailTaken):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrAccountDisabled):
		respondError(c, http.StatusUnauthorized, "account disabled")
	case errors.Is(err, services.ErrEmptyUpdate),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrPastDueDate),
		errors.Is(err, services.ErrBadAssignee):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
