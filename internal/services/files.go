package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"todo-app/backend/internal/config"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/policy"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// allowedMimeTypes is the upload allow-list: common image, document,
// archive and text types.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,

	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,

	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/gzip":             true,

	"text/plain":    true,
	"text/csv":      true,
	"text/markdown": true,
}

// UploadWarning reports a file from a batch that was skipped. The rest
// of the batch still persists.
type UploadWarning struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type FileService interface {
	SaveUploads(db *gorm.DB, uploaderID uuid.UUID, todoID *uuid.UUID, files []*multipart.FileHeader) ([]models.File, []UploadWarning, error)
	ServeFile(db *gorm.DB, requesterID uuid.UUID, storedName string) (*models.File, error)
	DeleteFile(db *gorm.DB, actorID uuid.UUID, storedName string) error
}

type FileServiceImpl struct {
	uploadDir   string
	maxFileSize int64
	maxFiles    int
}

func NewFileService(cfg config.UploadConfig) *FileServiceImpl {
	return &FileServiceImpl{
		uploadDir:   cfg.Dir,
		maxFileSize: cfg.MaxFileSize,
		maxFiles:    cfg.MaxFilesPerItem,
	}
}

// storedFileName builds a collision-resistant name from a random
// identifier, a timestamp, and the original extension. The client
// supplied name never reaches the storage path.
func storedFileName(originalName string) string {
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("%s_%d%s", uuid.Must(uuid.NewV4()).String(), time.Now().UnixNano(), ext)
}

func (s *FileServiceImpl) SaveUploads(db *gorm.DB, uploaderID uuid.UUID, todoID *uuid.UUID, files []*multipart.FileHeader) ([]models.File, []UploadWarning, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	var saved []models.File
	var warnings []UploadWarning

	for i, header := range files {
		if i >= s.maxFiles {
			warnings = append(warnings, UploadWarning{
				Filename: header.Filename,
				Reason:   fmt.Sprintf("at most %d files per request", s.maxFiles),
			})
			continue
		}

		if header.Size > s.maxFileSize {
			warnings = append(warnings, UploadWarning{
				Filename: header.Filename,
				Reason:   fmt.Sprintf("file exceeds the %d byte limit", s.maxFileSize),
			})
			continue
		}

		mimeType := header.Header.Get("Content-Type")
		if !allowedMimeTypes[mimeType] {
			warnings = append(warnings, UploadWarning{
				Filename: header.Filename,
				Reason:   fmt.Sprintf("file type %q is not allowed", mimeType),
			})
			continue
		}

		record, err := s.saveOne(db, uploaderID, todoID, header, mimeType)
		if err != nil {
			log.Printf("Failed to store upload %s: %v", header.Filename, err)
			warnings = append(warnings, UploadWarning{
				Filename: header.Filename,
				Reason:   "failed to store file",
			})
			continue
		}

		saved = append(saved, *record)
	}

	return saved, warnings, nil
}

func (s *FileServiceImpl) saveOne(db *gorm.DB, uploaderID uuid.UUID, todoID *uuid.UUID, header *multipart.FileHeader, mimeType string) (*models.File, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	storedName := storedFileName(header.Filename)
	path := filepath.Join(s.uploadDir, storedName)

	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	written, err := io.Copy(dst, src)
	dst.Close()
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	record := models.File{
		ID:           uuid.Must(uuid.NewV4()),
		StoredName:   storedName,
		OriginalName: header.Filename,
		Path:         path,
		Size:         written,
		MimeType:     mimeType,
		TodoID:       todoID,
		UploadedByID: uploaderID,
	}

	if err := db.Create(&record).Error; err != nil {
		os.Remove(path)
		return nil, err
	}

	return &record, nil
}

// ServeFile returns the catalog record if the requester may read the
// file. Denial answers exactly like absence so existence never leaks.
func (s *FileServiceImpl) ServeFile(db *gorm.DB, requesterID uuid.UUID, storedName string) (*models.File, error) {
	var file models.File
	err := db.Where("stored_name = ?", storedName).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	var todo *models.Todo
	if file.TodoID != nil {
		var t models.Todo
		if err := db.First(&t, "id = ?", *file.TodoID).Error; err == nil {
			todo = &t
		}
	}

	if !policy.CanAccessFile(requesterID, &file, todo) {
		return nil, ErrFileNotFound
	}

	return &file, nil
}

// DeleteFile removes the catalog row first; the row, not the disk, is
// the source of truth, so a failed unlink is only logged.
func (s *FileServiceImpl) DeleteFile(db *gorm.DB, actorID uuid.UUID, storedName string) error {
	var file models.File
	err := db.Where("stored_name = ?", storedName).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		return err
	}

	var todo *models.Todo
	if file.TodoID != nil {
		var t models.Todo
		if err := db.First(&t, "id = ?", *file.TodoID).Error; err == nil {
			todo = &t
		}
	}

	if !policy.CanAccessFile(actorID, &file, todo) {
		return ErrFileNotFound
	}

	if err := db.Delete(&file).Error; err != nil {
		return err
	}

	if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove file %s from disk: %v", file.Path, err)
	}

	return nil
}
