package api

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/sycamore/backend/pkg/redis"
)

// Limiter decides whether a client may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// idleLimiterTTL: 이 시간 동안 요청이 없던 클라이언트 리미터는 정리
const idleLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is a per-client token bucket kept in process memory
type LocalLimiter struct {
	rps   rate.Limit
	burst int

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter creates a token bucket limiter per client
func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow consumes one token from key's bucket
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1), nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > idleLimiterTTL {
			delete(l.clients, key)
		}
	}
}

// RedisLimiter shares the budget across replicas via pkg/redis
type RedisLimiter struct {
	limiter *redis.RateLimiter
	limit   int
}

// NewRedisLimiter allows ceil(rps) requests per client per second
func NewRedisLimiter(limiter *redis.RateLimiter, rps float64) *RedisLimiter {
	return &RedisLimiter{limiter: limiter, limit: int(math.Max(1, math.Ceil(rps)))}
}

// Allow checks key's sliding window
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, redis.ClientRateLimit(key, l.limit, time.Second))
	return allowed, err
}
