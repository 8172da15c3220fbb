package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Constants for Redis cache configuration
const (
	defaultScanBatchSize = 100
	defaultTemplateTTL   = 5 * time.Minute
)

// TemplateCache caches per-form-type template lists in front of the
// key-value store. A nil slice with a nil error means cache miss.
type TemplateCache interface {
	Get(ctx context.Context, formType string) ([]forms.Template, error)
	Set(ctx context.Context, formType string, templates []forms.Template, ttl time.Duration) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

// RedisTemplateCache implements TemplateCache using Redis
type RedisTemplateCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisTemplateCacheOption is a functional option for configuring the cache
type RedisTemplateCacheOption func(*RedisTemplateCache)

// WithCacheTTL sets the default entry TTL
func WithCacheTTL(ttl time.Duration) RedisTemplateCacheOption {
	return func(c *RedisTemplateCache) {
		c.ttl = ttl
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisTemplateCacheOption {
	return func(c *RedisTemplateCache) {
		c.logger = logger
	}
}

// RedisConfig holds connection settings for the cache client
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTemplateCache creates a new Redis-based template cache
func NewRedisTemplateCache(cfg RedisConfig, opts ...RedisTemplateCacheOption) (*RedisTemplateCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisTemplateCache{
		client:     client,
		ownsClient: true,
		ttl:        defaultTemplateTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache, nil
}

// NewRedisTemplateCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisTemplateCacheWithClient(client *redis.Client, opts ...RedisTemplateCacheOption) *RedisTemplateCache {
	cache := &RedisTemplateCache{
		client:     client,
		ownsClient: false,
		ttl:        defaultTemplateTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

func (c *RedisTemplateCache) cacheKey(formType string) string {
	return "template:formtype:" + formType
}

// Get retrieves the cached template list for a form type
func (c *RedisTemplateCache) Get(ctx context.Context, formType string) ([]forms.Template, error) {
	cacheKey := c.cacheKey(formType)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		c.logger.Debug("cache miss for template list", zap.String("formType", formType))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get templates from cache: %w", err)
	}

	var templates []forms.Template
	if err := json.Unmarshal(data, &templates); err != nil {
		// Drop corrupted cache entry
		_ = c.client.Del(ctx, cacheKey)
		return nil, fmt.Errorf("failed to unmarshal templates: %w", err)
	}

	c.logger.Debug("cache hit for template list", zap.String("formType", formType))
	return templates, nil
}

// Set stores a template list for a form type
func (c *RedisTemplateCache) Set(ctx context.Context, formType string, templates []forms.Template, ttl time.Duration) error {
	if templates == nil {
		return nil
	}
	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(templates)
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}

	if err := c.client.Set(ctx, c.cacheKey(formType), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set templates in cache: %w", err)
	}

	c.logger.Debug("cached template list",
		zap.String("formType", formType),
		zap.Int("count", len(templates)),
		zap.Duration("ttl", ttl))
	return nil
}

// InvalidateAll removes all cached template lists. Template writes of
// any kind call this; per-form-type invalidation is not worth the
// bookkeeping since universal templates appear in every list.
func (c *RedisTemplateCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	var deletedCount int64

	for {
		var keys []string
		var err error
		keys, cursor, err = c.client.Scan(ctx, cursor, "template:formtype:*", defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deletedCount += deleted
		}

		if cursor == 0 {
			break
		}
	}

	c.logger.Info("invalidated template cache", zap.Int64("deleted", deletedCount))
	return nil
}

// Close releases the Redis client if we own it
func (c *RedisTemplateCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// Ensure RedisTemplateCache implements TemplateCache
var _ TemplateCache = (*RedisTemplateCache)(nil)
