package handlers

import (
	"net/http"

	"todo-app/backend/internal/middleware"
	"todo-app/backend/internal/policy"
	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserHandler struct {
	db          *gorm.DB
	userService services.UserService
}

func NewUserHandler(db *gorm.DB, userService services.UserService) *UserHandler {
	return &UserHandler{db: db, userService: userService}
}

// CreateUser is the admin creation path (role settable, unlike public
// registration).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request data: "+err.Error())
		return
	}

	user, err := h.userService.CreateUser(h.db, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{"user": user})
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.GetUsers(h.db)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	targetID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	if !policy.CanAccessUser(actor, targetID) {
		respondError(c, http.StatusForbidden, "access denied")
		return
	}

	user, err := h.userService.GetUser(h.db, targetID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	targetID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	if !policy.CanAccessUser(actor, targetID) {
		respondError(c, http.StatusForbidden, "access denied")
		return
	}

	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request data: "+err.Error())
		return
	}

	user, err := h.userService.UpdateUser(h.db, targetID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) DeactivateUser(c *gin.Context) {
	targetID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.userService.DeactivateUser(h.db, targetID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "user deactivated"})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	targetID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.userService.DeleteUser(h.db, targetID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "user deleted"})
}
