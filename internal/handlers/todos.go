package handlers

import (
	"net/http"
	"strconv"

	"todo-app/backend/internal/middleware"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TodoHandler struct {
	db          *gorm.DB
	todoService services.TodoService
}

func NewTodoHandler(db *gorm.DB, todoService services.TodoService) *TodoHandler {
	return &TodoHandler{db: db, todoService: todoService}
}

func (h *TodoHandler) CreateTodo(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req services.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request data: "+err.Error())
		return
	}

	todo, err := h.todoService.CreateTodo(h.db, user, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{"todo": todo})
}

func (h *TodoHandler) ListTodos(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	filter := services.TodoFilter{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		AssigneeID: c.Query("assignee_id"),
		CreatorID:  c.Query("creator_id"),
		SortBy:     c.DefaultQuery("sortBy", "created_at"),
		Order:      c.DefaultQuery("order", "desc"),
		Page:       page,
		PageSize:   pageSize,
	}

	todos, total, err := h.todoService.ListTodos(h.db, user.ID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"todos": todos,
		"total": total,
	})
}

func (h *TodoHandler) GetTodoByID(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid todo id")
		return
	}

	todo, err := h.todoService.GetTodoByID(h.db, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if todo.CreatorID != user.ID && todo.AssigneeID != user.ID {
		respondError(c, http.StatusForbidden, "access denied")
		return
	}

	respondData(c, http.StatusOK, gin.H{"todo": todo})
}

func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid todo id")
		return
	}

	var req services.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request data: "+err.Error())
		return
	}

	todo, err := h.todoService.UpdateTodo(h.db, user.ID, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"todo": todo})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus is the narrow status endpoint. It accepts the visible
// transitions only; CANCELLED stays reachable through the generic
// update path.
func (h *TodoHandler) UpdateStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid todo id")
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request data: "+err.Error())
		return
	}

	switch models.TodoStatus(req.Status) {
	case models.StatusPending, models.StatusInProgress, models.StatusCompleted:
	default:
		respondError(c, http.StatusBadRequest, "status must be one of PENDING, IN_PROGRESS, COMPLETED")
		return
	}

	todo, err := h.todoService.UpdateTodo(h.db, user.ID, id, services.UpdateTodoRequest{Status: &req.Status})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"todo": todo})
}

type positionRequest struct {
	Position *int `json:"position" binding:"required"`
}

func (h *TodoHandler) UpdatePosition(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid todo id")
		return
	}

	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request data: "+err.Error())
		return
	}

	todo, err := h.todoService.UpdatePosition(h.db, user.ID, id, *req.Position)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"todo": todo})
}

func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid todo id")
		return
	}

	if err := h.todoService.DeleteTodo(h.db, user.ID, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "todo deleted"})
}
