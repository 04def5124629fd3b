package middleware

import (
	"context"
	"fmt"
	"net/http"
	"roulette_backend/pkg/logger"
	"roulette_backend/pkg/resp"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts hits per key in a fixed window
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Window() time.Duration
}

type redisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) Limiter {
	return &redisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow increments the counter of key, the first hit of a window starts its expiry
func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = "ratelimit:" + key

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		if err = l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}

func (l *redisLimiter) Window() time.Duration {
	return l.window
}

// RateLimit throttles action per authenticated user.
// Requests go through when the limiter itself fails, a Redis outage must not stop the tables.
func RateLimit(l Limiter, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := "anon:" + clientIP(r)
			if userID, ok := UserIDFromContext(r.Context()); ok {
				subject = strconv.Itoa(userID)
			}

			allowed, err := l.Allow(r.Context(), subject+":"+action)
			if err != nil {
				logger.Warn("Rate limiter unavailable", "action", action, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(l.Window().Seconds())))
				resp.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
