package middleware

import (
	"errors"
	"net/http"
	"strings"

	"todo-app/backend/internal/models"
	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const userContextKey = "current_user"

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"message": message},
	})
}

// AuthMiddleware verifies the bearer token and then re-checks the user
// against the store: a token is identification, not proof of continued
// eligibility. Deleted or deactivated accounts fail here regardless of
// token validity.
func AuthMiddleware(db *gorm.DB, authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "authorization header is required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, http.StatusUnauthorized, "authorization header must use Bearer token")
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := authService.VerifyToken(tokenStr)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		var user models.User
		if err := db.First(&user, "id = ?", claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWithError(c, http.StatusUnauthorized, "account no longer exists")
				return
			}
			abortWithError(c, http.StatusInternalServerError, "failed to verify account")
			return
		}

		if !user.IsActive {
			abortWithError(c, http.StatusUnauthorized, "account disabled")
			return
		}

		c.Set(userContextKey, &user)
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortWithError(c, http.StatusUnauthorized, "user not authenticated")
			return
		}
		if !user.IsAdmin() {
			abortWithError(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by AuthMiddleware,
// or nil.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
