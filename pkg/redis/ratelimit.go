package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow: 윈도우 밖 항목 제거 → 카운트 → 여유 있으면 추가 (원자적)
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	else
		return {0, 0}
	end
`)

// RateLimiter implements sliding window rate limiting shared across replicas
// ⭐ SSOT: 분산 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // bucket id (e.g. "model_server", "api:10.0.0.1")
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := time.Now().UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()

	// 같은 ms 요청이 덮어쓰지 않도록 멤버는 고유 ID
	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("rate limit script returned %d values", len(result))
	}

	return result[0] == 1, int(result[1]), nil
}

// Wait blocks until a request is allowed or context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// ModelServerRateLimit caps outbound calls to the remote model server
var ModelServerRateLimit = RateLimitConfig{
	Key:    "model_server",
	Limit:  100,
	Window: time.Second,
}

// ClientRateLimit builds the per-client inbound bucket
func ClientRateLimit(clientID string, limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Key:    "api:" + clientID,
		Limit:  limit,
		Window: window,
	}
}
