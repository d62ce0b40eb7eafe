package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mealwise/backend/internal/ratelimit"
)

// DefaultClientKey identifies callers that send no forwarded address
const DefaultClientKey = "127.0.0.1"

// ClientKey derives the rate limit key from the first X-Forwarded-For entry
func ClientKey(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return DefaultClientKey
	}
	first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
	if first == "" {
		return DefaultClientKey
	}
	return first
}

// RateLimit charges every request against limiter before any other handling.
// Rate limit headers are set on every response, including errors.
func RateLimit(limiter *ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientKey(c.Request)
		c.Set(ContextClientKey, key)

		decision, err := limiter.CheckAndIncrement(c.Request.Context(), key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if err != nil {
			// A broken store must not take the endpoint down
			logger.Error("rate limit check failed", zap.String("client_key", key), zap.Error(err))
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			logger.Warn("rate limit exceeded", zap.String("client_key", key))
			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
