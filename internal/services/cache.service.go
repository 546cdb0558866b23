package services

import (
	"context"
	"sync"
	"time"

	"serverbot/internal/models"
)

// LoadCache holds the last host load reading with a TTL.
// Disk usage samples are never cached.
type LoadCache struct {
	mu        sync.RWMutex
	value     *models.HostLoad
	cacheTime time.Time
	ttl       time.Duration
	fetch     func(ctx context.Context) (*models.HostLoad, error)
}

// NewLoadCache creates a cache around fetch
func NewLoadCache(ttl time.Duration, fetch func(ctx context.Context) (*models.HostLoad, error)) *LoadCache {
	return &LoadCache{ttl: ttl, fetch: fetch}
}

// isCacheValid checks if cache is still valid
func (c *LoadCache) isCacheValid() bool {
	return c.value != nil && time.Since(c.cacheTime) < c.ttl
}

// Get returns cached data if valid, otherwise fetches fresh
func (c *LoadCache) Get(ctx context.Context) (*models.HostLoad, error) {
	c.mu.RLock()
	if c.isCacheValid() {
		defer c.mu.RUnlock()
		return c.value, nil
	}
	c.mu.RUnlock()

	// Fetch fresh data
	value, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	// Update cache
	c.mu.Lock()
	c.value = value
	c.cacheTime = time.Now()
	c.mu.Unlock()

	return value, nil
}
