package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"quill/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot count it.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503 Service Unavailable.
	FailClosed
)

// rateLimitBypassed reports whether APP_ENV disables limits (unset, test and
// development).
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// hit counts one request against key and returns the count in the current
// window and the time left in it.
func hit(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, time.Duration, error) {
	if rdb == nil {
		return 0, 0, errors.New("redis client is nil")
	}

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		observability.RedisErrors.WithLabelValues("ratelimit").Inc()
		return 0, 0, err
	}

	left := ttl.Val()
	// A fresh key, or one whose EXPIRE was lost, opens a new window.
	if left < 0 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		left = window
	}
	return incr.Val(), left, nil
}

// CheckRateLimit counts a hit for resource/id in a fixed window and reports
// whether the caller is still within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitBypassed() {
		return true, nil
	}
	count, _, err := hit(ctx, rdb, rateLimitKey(resource, id), window)
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

func rateLimitKey(resource, id string) string {
	return "rl:" + resource + ":" + id
}

// RateLimit allows limit requests per window for each session user, or per
// remote IP for anonymous callers. Redis failures let requests through.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy. Rejected
// requests get 429 with a Retry-After header.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rateLimitBypassed() {
			return c.Next()
		}

		id := "ip:" + c.IP()
		if userID, ok := CurrentUserID(c); ok {
			id = fmt.Sprintf("user:%d", userID)
		}

		count, left, err := hit(c.UserContext(), rdb, rateLimitKey(name, id), window)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit unavailable",
				slog.String("resource", name), slog.String("error", err.Error()))
			if policy == FailClosed {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "rate limit unavailable"})
			}
			return c.Next()
		}

		if count > int64(limit) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(left.Round(time.Second)/time.Second)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
