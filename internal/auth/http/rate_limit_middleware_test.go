package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newLimitedRouter(ctx context.Context, limit rate.Limit, burst int) *gin.Engine {
	router := gin.New()
	router.Use(RateLimitMiddleware(ctx, limit, burst, discardLogger()))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func sendFrom(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = ip + ":1234"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("Success_WithinLimit", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		router := newLimitedRouter(ctx, 10, 20)

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, sendFrom(router, "192.0.2.1").Code)
		}
	})

	t.Run("Error_ExceedsBurst", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		router := newLimitedRouter(ctx, PerMinute(1), 2)

		assert.Equal(t, http.StatusOK, sendFrom(router, "192.0.2.2").Code)
		assert.Equal(t, http.StatusOK, sendFrom(router, "192.0.2.2").Code)

		w := sendFrom(router, "192.0.2.2")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.NotEqual(t, "0", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	})

	t.Run("Success_IndependentPerIP", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		router := newLimitedRouter(ctx, PerMinute(1), 1)

		assert.Equal(t, http.StatusOK, sendFrom(router, "192.0.2.3").Code)
		assert.Equal(t, http.StatusTooManyRequests, sendFrom(router, "192.0.2.3").Code)
		assert.Equal(t, http.StatusOK, sendFrom(router, "192.0.2.4").Code)
	})
}

func TestRateLimiterStore_EvictIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &rateLimiterStore{limit: 1, burst: 1, now: func() time.Time { return now }}

	store.getLimiter("198.51.100.1")
	now = now.Add(2 * time.Hour)
	store.getLimiter("198.51.100.2")

	store.evictIdle(now.Add(-limiterIdleTimeout))

	_, staleKept := store.limiters.Load("198.51.100.1")
	_, freshKept := store.limiters.Load("198.51.100.2")
	assert.False(t, staleKept)
	assert.True(t, freshKept)
}

func TestPerMinute(t *testing.T) {
	assert.InDelta(t, 0.5, float64(PerMinute(30)), 1e-9)
}
