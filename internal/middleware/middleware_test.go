package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/appser/appser-store/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 50; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
}

func TestRateLimiterHandler(t *testing.T) {
	logger.Init(logger.ERROR, false, nil)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/like", NewRateLimiter(1, 1).Handler(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("POST", "/like", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest("POST", "/like", nil))

	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestCooldownWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cd := NewCooldown(time.Second)
	cd.SetClock(func() time.Time { return now })

	key := DownloadKey("10.0.0.1", "vlc")
	assert.True(t, cd.Allow(key))
	assert.False(t, cd.Allow(key))
	assert.True(t, cd.Allow(DownloadKey("10.0.0.1", "kodi")))

	now = now.Add(999 * time.Millisecond)
	assert.False(t, cd.Allow(key))

	now = now.Add(time.Millisecond)
	assert.True(t, cd.Allow(key))
}

func TestCooldownDisabled(t *testing.T) {
	cd := NewCooldown(0)
	assert.True(t, cd.Allow("k"))
	assert.True(t, cd.Allow("k"))
}
