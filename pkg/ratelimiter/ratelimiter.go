package ratelimiter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ScopeGlobal = "global"
	ScopePost   = "post"
)

// RateLimitError carries the user-facing cooldown message plus the TTL for
// the Retry-After header.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func key(userID uuid.UUID, scope string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, userID.String())
}

// CheckAndSetRateLimit returns false when the user is still inside the
// cooldown window; otherwise it arms the window and returns true. A nil
// client disables limiting entirely (tests, degraded deployments).
func CheckAndSetRateLimit(ctx context.Context, client *redis.Client, userID uuid.UUID, scope string, window time.Duration) (bool, error) {
	if client == nil || window <= 0 {
		return true, nil
	}

	ok, err := client.SetNX(ctx, key(userID, scope), time.Now().Unix(), window).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func GetRateLimitTTL(ctx context.Context, client *redis.Client, userID uuid.UUID, scope string) (time.Duration, error) {
	if client == nil {
		return 0, nil
	}
	return client.TTL(ctx, key(userID, scope)).Result()
}

func ClearRateLimit(ctx context.Context, client *redis.Client, userID uuid.UUID, scope string) error {
	if client == nil {
		return nil
	}
	return client.Del(ctx, key(userID, scope)).Err()
}

func GetDurationFromEnv(envKey string, fallback time.Duration) time.Duration {
	if val := os.Getenv(envKey); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
