package services

import (
	"errors"
	"fmt"
	"strings"

	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

type UpdateUserRequest struct {
	Name           *string `json:"name"`
	Password       *string `json:"password"`
	ProfilePicture *string `json:"profile_picture"`
}

type UserService interface {
	CreateUser(db *gorm.DB, req CreateUserRequest) (*models.User, error)
	GetUser(db *gorm.DB, id uuid.UUID) (*models.User, error)
	GetUsers(db *gorm.DB) ([]models.User, error)
	UpdateUser(db *gorm.DB, id uuid.UUID, req UpdateUserRequest) (*models.User, error)
	DeactivateUser(db *gorm.DB, id uuid.UUID) error
	DeleteUser(db *gorm.DB, id uuid.UUID) error
}

type UserServiceImpl struct {
	bcryptCost int
}

func NewUserService(bcryptCost int) *UserServiceImpl {
	return &UserServiceImpl{bcryptCost: bcryptCost}
}

// CreateUser is the admin-side creation path; unlike registration it
// may set the role.
func (s *UserServiceImpl) CreateUser(db *gorm.DB, req CreateUserRequest) (*models.User, error) {
	email := NormalizeEmail(req.Email)

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := models.RoleUser
	if req.Role != "" {
		role = models.Role(req.Role)
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
	}

	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hashed, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:       uuid.Must(uuid.NewV4()),
		Email:    email,
		Name:     strings.TrimSpace(req.Name),
		Password: hashed,
		Role:     role,
		IsActive: true,
	}

	if err := db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return &user, nil
}

func (s *UserServiceImpl) GetUser(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserServiceImpl) GetUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserServiceImpl) UpdateUser(db *gorm.DB, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ValidationError("name is required")
		}
		if name != user.Name {
			updates["name"] = name
		}
	}

	if req.Password != nil {
		if err := ValidatePassword(*req.Password); err != nil {
			return nil, err
		}
		hashed, err := HashPassword(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}

	if req.ProfilePicture != nil && *req.ProfilePicture != user.ProfilePicture {
		updates["profile_picture"] = *req.ProfilePicture
	}

	if len(updates) == 0 {
		return nil, ErrEmptyUpdate
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// DeactivateUser is the soft delete: the row stays, the account is
// disabled and its unique email is anonymized so the address can be
// reused.
func (s *UserServiceImpl) DeactivateUser(db *gorm.DB, id uuid.UUID) error {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return err
	}

	return db.Model(&user).Updates(map[string]interface{}{
		"is_active": false,
		"email":     fmt.Sprintf("deactivated-%s@example.invalid", user.ID),
	}).Error
}

// DeleteUser is the hard delete: everything the user created, was
// assigned, uploaded, or was notified about goes with them. Disk
// objects for removed file rows are swept by the cleanup job.
func (s *UserServiceImpl) DeleteUser(db *gorm.DB, id uuid.UUID) error {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var todoIDs []uuid.UUID
		err := tx.Model(&models.Todo{}).
			Where("creator_id = ? OR assignee_id = ?", id, id).
			Pluck("id", &todoIDs).Error
		if err != nil {
			return err
		}

		if len(todoIDs) > 0 {
			if err := tx.Where("todo_id IN ?", todoIDs).Delete(&models.File{}).Error; err != nil {
				return err
			}
			if err := tx.Where("todo_id IN ?", todoIDs).Delete(&models.Notification{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", todoIDs).Delete(&models.Todo{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("uploaded_by_id = ?", id).Delete(&models.File{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
}
