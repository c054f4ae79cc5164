package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const issueQuotaWindow = 24 * time.Hour

// QuotaCounter is the subset of the redis client the quota needs.
type QuotaCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Decr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// IssueQuota caps issue submissions per reporter (email form field, else client ip) per day.
// Only submissions answered with 2xx count against the quota. Redis errors let the request through.
func IssueQuota(counter QuotaCounter, limit int, keyPrefix string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := keyPrefix + ":" + quotaSubject(c)

		count, err := counter.Incr(ctx, key).Result()
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("issue quota unavailable")
			c.Next()
			return
		}
		if count == 1 {
			if err := counter.Expire(ctx, key, issueQuotaWindow).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to set issue quota ttl")
			}
		}

		if count > int64(limit) {
			refundQuota(ctx, counter, key, log)
			retryAfter, _ := counter.TTL(ctx, key).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "daily issue limit reached",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()

		if status := c.Writer.Status(); status < http.StatusOK || status >= http.StatusMultipleChoices {
			refundQuota(ctx, counter, key, log)
		}
	}
}

func refundQuota(ctx context.Context, counter QuotaCounter, key string, log zerolog.Logger) {
	if err := counter.Decr(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to refund issue quota")
	}
}

func quotaSubject(c *gin.Context) string {
	if email := strings.ToLower(strings.TrimSpace(c.PostForm("email"))); email != "" {
		return email
	}
	return c.ClientIP()
}
