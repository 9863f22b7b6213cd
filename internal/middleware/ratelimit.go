package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// WindowCounter считает запросы в фиксированном окне
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter INCR, окно задаётся EXPIRE на первом запросе
type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// RateLimiter ограничение по IP: perMinute запросов к API, для /ws в 12 раз меньше.
// При недоступном счётчике запрос пропускается.
func RateLimiter(counter WindowCounter, perMinute int, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	wsLimit := perMinute / 12
	if wsLimit < 1 {
		wsLimit = 1
	}

	return func(c *gin.Context) {
		if perMinute <= 0 {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		key, limit := "rate_limit:api:"+clientIP, perMinute
		if c.Request.URL.Path == "/ws" {
			key, limit = "rate_limit:ws:"+clientIP, wsLimit
		}

		count, err := counter.Incr(c.Request.Context(), key, time.Minute)
		if err != nil {
			log.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}
