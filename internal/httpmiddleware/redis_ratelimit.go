package httpmiddleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisWindow is a fixed-window limiter in Redis, shared across replicas.
// It fails open when Redis is unreachable.
type RedisWindow struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisWindow creates a limiter allowing limit requests per window.
func NewRedisWindow(client *redis.Client, prefix string, limit int, window time.Duration) *RedisWindow {
	if prefix == "" {
		prefix = "presence:ratelimit"
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisWindow{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow implements Limiter.
func (l *RedisWindow) Allow(c *gin.Context, key string) bool {
	ctx := c.Request.Context()
	slot := time.Now().Unix() / int64(l.window.Seconds())
	redisKey := l.prefix + ":" + key + ":" + strconv.FormatInt(slot, 10)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		log.Warn().Err(err).Msg("rate limit check failed, allowing request")
		return true
	}
	if count == 1 {
		l.client.Expire(ctx, redisKey, l.window)
	}
	return count <= int64(l.limit)
}
