package handlers

import (
	"mime"
	"net/http"

	"todo-app/backend/internal/middleware"
	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type FileHandler struct {
	db          *gorm.DB
	fileService services.FileService
	todoService services.TodoService
}

func NewFileHandler(db *gorm.DB, fileService services.FileService, todoService services.TodoService) *FileHandler {
	return &FileHandler{db: db, fileService: fileService, todoService: todoService}
}

// UploadFiles attaches files to a todo. Invalid files in the batch are
// reported as warnings while the valid ones persist.
func (h *FileHandler) UploadFiles(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	todoID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid todo id")
		return
	}

	todo, err := h.todoService.GetTodoByID(h.db, todoID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if todo.CreatorID != user.ID && todo.AssigneeID != user.ID {
		respondError(c, http.StatusForbidden, "access denied")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		respondError(c, http.StatusBadRequest, "no files in request")
		return
	}

	saved, warnings, err := h.fileService.SaveUploads(h.db, user.ID, &todoID, files)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"files":    saved,
		"warnings": warnings,
	})
}

// ServeFile streams the stored object. Access denial answers 404 so a
// probe cannot distinguish forbidden from missing.
func (h *FileHandler) ServeFile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	file, err := h.fileService.ServeFile(h.db, user.ID, c.Param("filename"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Type", file.MimeType)
	c.Header("Cache-Control", "private, max-age=3600")
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{
		"filename": file.OriginalName,
	}))
	c.File(file.Path)
}

func (h *FileHandler) DeleteFile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	if err := h.fileService.DeleteFile(h.db, user.ID, c.Param("filename")); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "file deleted"})
}
