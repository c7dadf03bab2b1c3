package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implements Client over go-cache. Used for development and
// tests; TTL eviction comes from the library.
type memoryClient struct {
	prefix string
	data   *gocache.Cache

	// go-cache increments are not atomic across Add+Increment, so counter
	// updates take this lock.
	mu sync.Mutex
}

// NewMemory builds an in-process cache client.
func NewMemory(prefix string) Client {
	return &memoryClient{
		prefix: prefix,
		data:   gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (c *memoryClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *memoryClient) Get(_ context.Context, key string) (string, error) {
	v, ok := c.data.Get(c.key(key))
	if !ok {
		return "", ErrNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

func (c *memoryClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.data.Set(c.key(key), value, ttl)
	return nil
}

func (c *memoryClient) Delete(_ context.Context, key string) error {
	c.data.Delete(c.key(key))
	return nil
}

func (c *memoryClient) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.key(key)
	if _, ok := c.data.Get(k); !ok {
		if ttl <= 0 {
			ttl = gocache.NoExpiration
		}
		c.data.Set(k, int64(1), ttl)
		return 1, nil
	}
	n, err := c.data.IncrementInt64(k, 1)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (c *memoryClient) Ping(_ context.Context) error { return nil }

func (c *memoryClient) Close() error {
	c.data.Flush()
	return nil
}
