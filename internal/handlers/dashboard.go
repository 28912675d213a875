package handlers

import (
	"net/http"

	"todo-app/backend/internal/middleware"
	"todo-app/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	db           *gorm.DB
	statsService services.StatsService
}

func NewDashboardHandler(db *gorm.DB, statsService services.StatsService) *DashboardHandler {
	return &DashboardHandler{db: db, statsService: statsService}
}

func (h *DashboardHandler) GetStats(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	stats, err := h.statsService.GetDashboardStats(h.db, user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"stats": stats})
}
