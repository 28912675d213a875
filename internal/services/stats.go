package services

import (
	"fmt"
	"sync"
	"time"

	"todo-app/backend/internal/cache"
	"todo-app/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalTodos          int64 `json:"total_todos"`
	Pending             int64 `json:"pending"`
	InProgress          int64 `json:"in_progress"`
	Completed           int64 `json:"completed"`
	Cancelled           int64 `json:"cancelled"`
	Overdue             int64 `json:"overdue"`
	UnreadNotifications int64 `json:"unread_notifications"`
}

type StatsService interface {
	GetDashboardStats(db *gorm.DB, userID uuid.UUID) (*DashboardStats, error)
}

type StatsServiceImpl struct {
	cache *cache.RedisCache
}

func NewStatsService(cacheInstance *cache.RedisCache) *StatsServiceImpl {
	return &StatsServiceImpl{cache: cacheInstance}
}

// GetDashboardStats runs the independent counts in parallel; none of
// them depends on another's result.
func (s *StatsServiceImpl) GetDashboardStats(db *gorm.DB, userID uuid.UUID) (*DashboardStats, error) {
	cacheKey := fmt.Sprintf("dashboard_stats:%s", userID.String())

	if s.cache != nil {
		var cached DashboardStats
		if err := s.cache.Get(cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats := &DashboardStats{}

	// Each closure builds its own chain off the root db; gorm chains
	// must not be shared between goroutines.
	participant := func() *gorm.DB {
		return db.Model(&models.Todo{}).Where("creator_id = ? OR assignee_id = ?", userID, userID)
	}

	counts := []struct {
		dest  *int64
		query func() *gorm.DB
	}{
		{&stats.TotalTodos, func() *gorm.DB {
			return participant()
		}},
		{&stats.Pending, func() *gorm.DB {
			return participant().Where("status = ?", models.StatusPending)
		}},
		{&stats.InProgress, func() *gorm.DB {
			return participant().Where("status = ?", models.StatusInProgress)
		}},
		{&stats.Completed, func() *gorm.DB {
			return participant().Where("status = ?", models.StatusCompleted)
		}},
		{&stats.Cancelled, func() *gorm.DB {
			return participant().Where("status = ?", models.StatusCancelled)
		}},
		{&stats.Overdue, func() *gorm.DB {
			return participant().
				Where("due_date IS NOT NULL AND due_date < ? AND status NOT IN ?",
					time.Now(), []models.TodoStatus{models.StatusCompleted, models.StatusCancelled})
		}},
		{&stats.UnreadNotifications, func() *gorm.DB {
			return db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false)
		}},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(counts))

	for i, c := range counts {
		wg.Add(1)
		go func(i int, dest *int64, query func() *gorm.DB) {
			defer wg.Done()
			errs[i] = query().Count(dest).Error
		}(i, c.dest, c.query)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, stats, 30*time.Second)
	}

	return stats, nil
}
