package post

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"liftly.app/liftly/pkg/ratelimiter"
)

// checkCreateRateLimit arms both the global and the post-scoped cooldown
// windows. The returned cleanup releases them again so a failed create does
// not burn the user's slot.
func (s *postService) checkCreateRateLimit(ctx context.Context, userID uuid.UUID) (func(), error) {
	globalWindow := ratelimiter.GetDurationFromEnv("RATE_LIMIT_GLOBAL", 5*time.Second)
	postWindow := ratelimiter.GetDurationFromEnv("RATE_LIMIT_POST", 15*time.Second)

	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, userID, ratelimiter.ScopeGlobal, globalWindow)
	if err != nil {
		log.Printf("[post] rate limit check failed for %s: %v", userID, err)
		return func() {}, nil
	}
	if !allowed {
		return nil, s.rateLimitError(ctx, userID, ratelimiter.ScopeGlobal, "you are doing that too fast, slow down")
	}

	allowed, err = ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, userID, ratelimiter.ScopePost, postWindow)
	if err != nil {
		log.Printf("[post] rate limit check failed for %s: %v", userID, err)
		return func() {}, nil
	}
	if !allowed {
		_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, userID, ratelimiter.ScopeGlobal)
		return nil, s.rateLimitError(ctx, userID, ratelimiter.ScopePost, "please wait before posting again")
	}

	cleanup := func() {
		bg := context.Background()
		_ = ratelimiter.ClearRateLimit(bg, s.redisClient, userID, ratelimiter.ScopeGlobal)
		_ = ratelimiter.ClearRateLimit(bg, s.redisClient, userID, ratelimiter.ScopePost)
	}
	return cleanup, nil
}

func (s *postService) rateLimitError(ctx context.Context, userID uuid.UUID, scope string, msg string) error {
	ttl, err := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, userID, scope)
	if err != nil || ttl < 0 {
		ttl = 0
	}
	return &ratelimiter.RateLimitError{
		Message:    fmt.Sprintf("%s (retry in %ds)", msg, int(ttl.Seconds())),
		RetryAfter: ttl,
	}
}
