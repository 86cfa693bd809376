package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
)

const cacheKeyPrefix = "vanta_response:"

// ResponseCache memoizes integrated answers keyed by the normalized query.
// Only context-free queries should be cached: an answer that depended on
// conversation history is wrong for the next user who asks the same words.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResponseCache(cfg *config.RedisConfig) (*ResponseCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &ResponseCache{client: client, ttl: ttl}, nil
}

// NewResponseCacheWithClient wires an existing client, used by tests with
// miniredis.
func NewResponseCacheWithClient(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Key normalizes the query (case, surrounding space) and hashes it.
func Key(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached result for the query, or nil on a miss. Lookup
// errors degrade to a miss: the cache is an accelerator, never a gate.
func (c *ResponseCache) Get(ctx context.Context, query string) (*models.IntegrationResult, error) {
	val, err := c.client.Get(ctx, Key(query)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result models.IntegrationResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Set stores an integrated result. Fallback answers are never cached.
func (c *ResponseCache) Set(ctx context.Context, query string, result *models.IntegrationResult) error {
	if result == nil || result.Source == models.SourceFallback {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(query), data, c.ttl).Err()
}

func (c *ResponseCache) Delete(ctx context.Context, query string) error {
	return c.client.Del(ctx, Key(query)).Err()
}

func (c *ResponseCache) Close() error {
	return c.client.Close()
}
