// Package limiter throttles repeated OTP failures per email using Redis
// counters.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-edu"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
	keyPrefix          = "otp:att:"
)

var errRedisUnavailable = errors.New("attempt limiter redis unavailable")

// Redis counts failures in a fixed window starting at the first failure.
type Redis struct {
	client      redis.Cmdable
	maxAttempts int
	window      time.Duration
}

var _ edu.AttemptLimiter = (*Redis)(nil)

// NewRedis returns a limiter allowing maxAttempts failures per window.
// Non positive values use the defaults.
func NewRedis(client redis.Cmdable, maxAttempts int, window time.Duration) *Redis {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Redis{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Allow reports whether key is still below the failure budget.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, attemptKey(key)).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return count < l.maxAttempts, nil
}

// RecordFailure increments the counter, opening the window on the first
// failure.
func (l *Redis) RecordFailure(ctx context.Context, key string) error {
	k := attemptKey(key)
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", errRedisUnavailable, err)
		}
	}
	return nil
}

// Reset clears the counter after a successful verification.
func (l *Redis) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, attemptKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return nil
}

func attemptKey(key string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(key))
}
