package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"teamtask/cache"
	"teamtask/common"

	"github.com/go-redis/redis/v8"
)

var ErrLimiterDisabled = errors.New("rate limiting disabled")

// RateLimiter is a fixed-window per-user request counter kept in redis.
type RateLimiter struct {
	RedisClient cache.RedisClientInterface
	Limit       int
	Window      time.Duration
}

func NewRateLimiter(redisClient cache.RedisClientInterface, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		RedisClient: redisClient,
		Limit:       limit,
		Window:      window,
	}
}

func RateLimitKey(userID int64) string {
	return fmt.Sprintf("ratelimit:user:%d", userID)
}

// Middleware must run after JWT so the user id is on the context. A nil
// limiter or client lets every request through.
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r == nil || r.RedisClient == nil {
			next.ServeHTTP(w, req)
			return
		}

		userID, ok := common.UserIDFrom(req.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := req.Context()
		key := RateLimitKey(userID)

		count, err := r.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			http.Error(w, "Rate limit error", http.StatusInternalServerError)
			return
		}
		if count == 1 {
			r.RedisClient.Expire(ctx, key, r.Window)
		}

		remaining := r.Limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		ttl, _ := r.RedisClient.TTL(ctx, key).Result()
		if ttl < 0 {
			ttl = r.Window
		}
		w.Header().Set("X-Rate-Limit-Limit", strconv.Itoa(r.Limit))
		w.Header().Set("X-Rate-Limit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-Rate-Limit-Reset", strconv.FormatInt(int64(ttl.Seconds()), 10))

		if int(count) > r.Limit {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// Status reports the remaining quota and the time until the window resets,
// without consuming a request.
func (r *RateLimiter) Status(ctx context.Context, userID int64) (int, time.Duration, error) {
	if r == nil || r.RedisClient == nil {
		return 0, 0, ErrLimiterDisabled
	}
	key := RateLimitKey(userID)

	count := 0
	val, err := r.RedisClient.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("reading rate limit: %w", err)
	}
	if err == nil {
		count, _ = strconv.Atoi(val)
	}

	ttl, err := r.RedisClient.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("reading rate limit ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	remaining := r.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, ttl, nil
}
