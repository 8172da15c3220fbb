package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/formflow/backend/internal/domain/forms"
	"go.uber.org/zap"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
)

// InMemoryTemplateCache implements TemplateCache using in-memory storage.
// It is the default when no Redis instance is configured.
type InMemoryTemplateCache struct {
	entries sync.Map // map[string]*cacheEntry
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	// Stats for monitoring
	hits   int64
	misses int64
}

// cacheEntry wraps a cached template list with expiration time
type cacheEntry struct {
	templates []forms.Template
	expiresAt time.Time
}

func (e *cacheEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryTemplateCacheOption is a functional option for configuring the cache
type InMemoryTemplateCacheOption func(*InMemoryTemplateCache)

// WithInMemoryTTL sets the default entry TTL
func WithInMemoryTTL(ttl time.Duration) InMemoryTemplateCacheOption {
	return func(c *InMemoryTemplateCache) {
		c.ttl = ttl
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryTemplateCacheOption {
	return func(c *InMemoryTemplateCache) {
		c.logger = logger
	}
}

// NewInMemoryTemplateCache creates a new in-memory template cache
func NewInMemoryTemplateCache(opts ...InMemoryTemplateCacheOption) *InMemoryTemplateCache {
	cache := &InMemoryTemplateCache{
		ttl:    defaultTemplateTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves the cached template list for a form type
func (c *InMemoryTemplateCache) Get(ctx context.Context, formType string) ([]forms.Template, error) {
	if value, ok := c.entries.Load(formType); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.templates, nil
		}
		c.entries.Delete(formType)
	}

	atomic.AddInt64(&c.misses, 1)
	return nil, nil
}

// Set stores a template list for a form type
func (c *InMemoryTemplateCache) Set(ctx context.Context, formType string, templates []forms.Template, ttl time.Duration) error {
	if templates == nil {
		return nil
	}
	if ttl == 0 {
		ttl = c.ttl
	}

	c.entries.Store(formType, &cacheEntry{
		templates: templates,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

// InvalidateAll removes all cached template lists
func (c *InMemoryTemplateCache) InvalidateAll(ctx context.Context) error {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemoryTemplateCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryTemplateCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemoryTemplateCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			removed := 0
			c.entries.Range(func(key, value any) bool {
				if value.(*cacheEntry).isExpired() {
					c.entries.Delete(key)
					removed++
				}
				return true
			})
			if removed > 0 {
				c.logger.Debug("cleaned up expired template cache entries",
					zap.Int("removed", removed))
			}
		}
	}
}

// Ensure InMemoryTemplateCache implements TemplateCache
var _ TemplateCache = (*InMemoryTemplateCache)(nil)
