package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides JSON caching under a key prefix
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. A missing key is (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL. A zero TTL disables caching.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.key(key)).Err()
}

// Purge removes every key under pattern (e.g. after a model reload)
func (c *Cache) Purge(ctx context.Context, pattern string) (int, error) {
	if !c.client.Enabled() {
		return 0, nil
	}

	rdb := c.client.Redis()
	iter := rdb.Scan(ctx, 0, c.key(pattern), 100).Iterator()

	removed := 0
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, iter.Err()
}

// Default TTLs
const (
	TTLScore = 10 * time.Minute // 점수 결과
	TTLModel = 1 * time.Hour    // 모델 메타데이터
)

// ScoreKey keys a scoring result by model version, policy hash and request digest.
// 모델/정책이 바뀌면 키가 달라지므로 별도 무효화 불필요
func ScoreKey(modelVersion, policyHash, requestDigest string) string {
	return strings.Join([]string{"score", modelVersion, shortHash(policyHash), requestDigest}, ":")
}

// ScorePattern matches every score entry of one model version
func ScorePattern(modelVersion string) string {
	return fmt.Sprintf("score:%s:*", modelVersion)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
