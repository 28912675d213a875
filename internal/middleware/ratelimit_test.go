package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo-app/backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rateLimitedRouter(cfg config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(cfg))
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestRateLimitMiddlewareBlocksAfterBurst(t *testing.T) {
	router := rateLimitedRouter(config.RateLimitConfig{
		Enabled:         true,
		RequestsPerMin:  60,
		BurstSize:       3,
		CleanupInterval: time.Minute,
	})

	var lastCode int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.10:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		lastCode = w.Code
		if i < 3 {
			assert.Equal(t, http.StatusOK, w.Code, "request %d", i)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestRateLimitMiddlewareTracksClientsSeparately(t *testing.T) {
	router := rateLimitedRouter(config.RateLimitConfig{
		Enabled:         true,
		RequestsPerMin:  60,
		BurstSize:       1,
		CleanupInterval: time.Minute,
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.1:1000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.1:1000"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different IP has its own bucket.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.2:1000"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	router := rateLimitedRouter(config.RateLimitConfig{Enabled: false})

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.3:1000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
