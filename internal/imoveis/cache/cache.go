package cache

import (
	"context"
	"sort"
	"sync"

	"github.com/farxc/imoveis_dashboard/internal/imoveis"
	"github.com/farxc/imoveis_dashboard/internal/logger"
	"golang.org/x/sync/singleflight"
)

// LoadFunc produces the table for a source. *imoveis.Loader's Load fits.
type LoadFunc func(ctx context.Context, source string) (imoveis.Table, error)

type entry struct {
	table imoveis.Table
}

// Cache is a read-through store of canonical tables keyed by the literal
// source string. Concurrent misses on one key share a single load and only
// successful loads are kept.
type Cache struct {
	load   LoadFunc
	logger *logger.Logger

	mu          sync.RWMutex
	entries     map[string]entry
	generations map[string]uint64
	epoch       uint64
	group       singleflight.Group
}

func New(load LoadFunc, appLogger *logger.Logger) *Cache {
	return &Cache{
		load:        load,
		logger:      appLogger,
		entries:     make(map[string]entry),
		generations: make(map[string]uint64),
	}
}

// Get returns the cached table for source, loading it on a miss. On a
// failed load the (empty) table is returned with the error and nothing is
// cached.
func (c *Cache) Get(ctx context.Context, source string) (imoveis.Table, error) {
	const component = "Cache"

	c.mu.RLock()
	e, ok := c.entries[source]
	gen, epoch := c.generations[source], c.epoch
	c.mu.RUnlock()
	if ok {
		c.logger.Debug(component, "Hit source=%s", source)
		return e.table, nil
	}

	v, err, shared := c.group.Do(source, func() (interface{}, error) {
		// Shared by every waiter; detached from the first caller's cancellation.
		table, err := c.load(context.WithoutCancel(ctx), source)
		if err != nil {
			return table, err
		}

		c.mu.Lock()
		if c.generations[source] == gen && c.epoch == epoch {
			c.entries[source] = entry{table: table}
		}
		c.mu.Unlock()
		return table, nil
	})
	c.logger.Debug(component, "Miss source=%s shared=%t", source, shared)

	return v.(imoveis.Table), err
}

// Invalidate drops the entry for source. A load already in flight for it
// will not be cached.
func (c *Cache) Invalidate(source string) {
	const component = "Cache"

	c.mu.Lock()
	delete(c.entries, source)
	c.generations[source]++
	c.mu.Unlock()
	c.group.Forget(source)

	c.logger.Info(component, "Invalidated source=%s", source)
}

// InvalidateAll drops every entry and keeps loads in flight from being cached.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.epoch++
	sources := make([]string, 0, len(c.entries))
	for source := range c.entries {
		sources = append(sources, source)
	}
	c.mu.Unlock()

	for _, source := range sources {
		c.Invalidate(source)
	}
}

// Sources lists the cached sources in sorted order.
func (c *Cache) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sources := make([]string, 0, len(c.entries))
	for source := range c.entries {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}
