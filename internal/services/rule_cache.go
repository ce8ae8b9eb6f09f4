package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/medtravel/offer-service/internal/models"

	"github.com/redis/go-redis/v9"
)

// RuleCache is an advisory cache for active rule sets. Implementations must
// return (nil, nil) on a miss; a cache failure never fails the caller.
type RuleCache interface {
	Get(ctx context.Context, key string) ([]models.PriceRule, error)
	Set(ctx context.Context, key string, rules []models.PriceRule) error
}

// RedisRuleCache caches rule sets as JSON entries with a TTL. Rules are
// mutated by an external supplier workflow, so entries go stale; the short
// TTL plus the in-memory re-filter of every candidate keeps that harmless.
type RedisRuleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRuleCache creates a new RedisRuleCache instance.
func NewRedisRuleCache(client *redis.Client, ttl time.Duration) *RedisRuleCache {
	return &RedisRuleCache{client: client, ttl: ttl}
}

const ruleCacheKeyPrefix = "rules:"

// RuleCacheKey builds a cache key from the procedure and the country set.
// Countries are sorted so equivalent requests share one entry.
func RuleCacheKey(procedureName string, countries []string) string {
	sorted := append([]string(nil), countries...)
	sort.Strings(sorted)
	return ruleCacheKeyPrefix + procedureName + ":" + strings.Join(sorted, ",")
}

func (c *RedisRuleCache) Get(ctx context.Context, key string) ([]models.PriceRule, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rules []models.PriceRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *RedisRuleCache) Set(ctx context.Context, key string, rules []models.PriceRule) error {
	if rules == nil {
		rules = []models.PriceRule{}
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
