package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/taskhub/api/db"
	"github.com/dev-mohitbeniwal/taskhub/api/middleware"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache, err := db.NewRedisCache(client, []byte("0123456789abcdef0123456789abcdef"), time.Minute)
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.Logger())
	r.GET("/ping", middleware.RateLimiter(cache, 2, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.GET("/u/ping", withPrincipal(&model.Principal{ID: "u1"}), middleware.RateLimiter(cache, 1, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	for i := 0; i < 2; i++ {
		w := serve(r, http.MethodGet, "/ping")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/ping").Code)

	// authenticated callers are limited by principal, not IP
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/u/ping").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/u/ping").Code)
}

func TestRateLimiter_StoreFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache, err := db.NewRedisCache(client, []byte("0123456789abcdef0123456789abcdef"), time.Minute)
	require.NoError(t, err)
	mr.Close()

	r := gin.New()
	r.GET("/ping", middleware.RateLimiter(cache, 2, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
