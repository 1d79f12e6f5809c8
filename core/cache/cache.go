// Package cache memoizes collector output per structural category.
// Invalidation is full, never incremental: a mutated document clears every
// slot after a short debounce so bursts of DOM churn (a single-page-app
// re-render) collapse into one invalidation.
package cache

import (
	"sync"
	"time"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/collect"
)

// DefaultDebounce is the quiet period after the last mutation signal
// before the cache is cleared.
const DefaultDebounce = 500 * time.Millisecond

// Cache holds one slot per structural category plus the "all" slot.
// Slots are populated lazily, one category at a time, on first use.
type Cache struct {
	mu        sync.Mutex
	collector *collect.Collector
	slots     map[core.Category][]core.TaggedLine
	debounce  time.Duration

	timer       *time.Timer
	unsubscribe func()
}

// New creates an empty Cache over the given collector. A non-positive
// debounce falls back to DefaultDebounce.
func New(collector *collect.Collector, debounce time.Duration) *Cache {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Cache{
		collector: collector,
		slots:     make(map[core.Category][]core.TaggedLine),
		debounce:  debounce,
	}
}

// Get returns the cached lines for a category, collecting and storing them
// on first request.
func (c *Cache) Get(category core.Category) []core.TaggedLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lines, ok := c.slots[category]; ok {
		return lines
	}
	lines := c.collector.Collect(category)
	c.slots[category] = lines
	return lines
}

// InvalidateAll clears every slot. The next Get rebuilds its category.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = make(map[core.Category][]core.TaggedLine)
}

// Watch subscribes to the document's change notifications. Each signal
// restarts the debounce timer; when it fires with no further signals,
// InvalidateAll runs. Unwatch tears this down again.
func (c *Cache) Watch(notifier core.ChangeNotifier) {
	if notifier == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return // already watching
	}
	c.unsubscribe = notifier.Subscribe(c.signal)
}

// signal restarts the invalidation timer.
func (c *Cache) signal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.InvalidateAll)
}

// Unwatch stops observation, cancels any pending invalidation, and clears
// all cached state. Called on search close so nothing runs in the
// background while search is inactive.
func (c *Cache) Unwatch() {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.slots = make(map[core.Category][]core.TaggedLine)
	c.mu.Unlock()
}
