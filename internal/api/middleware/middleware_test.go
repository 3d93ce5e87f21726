package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutrition-resolver/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewareRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.POST("/echo", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimit(t *testing.T) {
	router := newMiddlewareRouter(RateLimit(2, time.Minute))

	t.Run("requests within budget pass", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("exhausted budget answers 429 with retry hint", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), common.ErrCodeTooManyRequests)
	})
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	require.True(t, rl.Allow())
	require.False(t, rl.Allow())

	time.Sleep(25 * time.Millisecond)
	assert.True(t, rl.Allow())
}

func TestBodySizeLimit(t *testing.T) {
	router := newMiddlewareRouter(BodySizeLimit(16))

	t.Run("small body passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("ok"))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64)))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
