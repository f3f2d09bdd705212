package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/metrics"
)

// Cache memoizes one loaded dataset per model variant on top of a Source.
// A dataset is reloaded only after Invalidate. Safe for concurrent use.
type Cache struct {
	src Source

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	ds  *Dataset
	err error
}

// NewCache wraps src.
func NewCache(src Source) *Cache {
	return &Cache{src: src, entries: make(map[string]*cacheEntry)}
}

// Load returns the memoized dataset for model, loading it on first use.
// ErrNoData results are memoized too; context errors are not.
func (c *Cache) Load(ctx context.Context, model config.ModelVariant) (*Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[model.Key]; ok {
		metrics.CacheLookups.WithLabelValues(model.Key, "hit").Inc()
		return e.ds, e.err
	}
	metrics.CacheLookups.WithLabelValues(model.Key, "miss").Inc()

	start := time.Now()
	ds, err := c.src.Load(ctx, model)
	if (err != nil && !errors.Is(err, ErrNoData)) || ds == nil {
		return nil, err
	}
	metrics.ObserveLoad(model.Key, time.Since(start), len(ds.IDs), len(ds.LoadErrors))

	c.entries[model.Key] = &cacheEntry{ds: ds, err: err}
	return ds, err
}

// Invalidate drops the memoized dataset for modelKey.
func (c *Cache) Invalidate(modelKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, modelKey)
}

// InvalidateAll drops every memoized dataset.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Close closes the underlying source.
func (c *Cache) Close() error {
	return c.src.Close()
}
