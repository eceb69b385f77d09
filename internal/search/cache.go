package search

import (
	"container/list"
	"sync"
)

// resultCache is an LRU cache of ranked result slices keyed by query
// text. Entries remember the corpus version they were computed
// against; a lookup under a different version misses. Setting a query
// invalidates cached prefixes of it, so incremental typing never
// serves a superset's stale results. Safe for concurrent use.
type resultCache struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List
}

type cacheEntry struct {
	query   string
	version uint64
	results []Result
}

func newResultCache(maxSize int) *resultCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &resultCache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// get returns cached results for the query at the given corpus
// version, or nil on a miss.
func (c *resultCache) get(query string, version uint64) []Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[query]
	if !ok {
		return nil
	}
	entry := elem.Value.(*cacheEntry) //nolint:errcheck // list only contains *cacheEntry
	if entry.version != version {
		c.removeElement(elem)
		return nil
	}

	c.lru.MoveToFront(elem)
	return copyResults(entry.results)
}

// set stores results and drops cached queries that are prefixes of
// this one.
func (c *resultCache) set(query string, version uint64, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for cached, elem := range c.items {
		if len(cached) < len(query) && query[:len(cached)] == cached {
			c.removeElement(elem)
		}
	}

	if elem, ok := c.items[query]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry) //nolint:errcheck // list only contains *cacheEntry
		entry.version = version
		entry.results = copyResults(results)
		return
	}

	if c.lru.Len() >= c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	elem := c.lru.PushFront(&cacheEntry{
		query:   query,
		version: version,
		results: copyResults(results),
	})
	c.items[query] = elem
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru.Init()
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// removeElement must be called with the lock held.
func (c *resultCache) removeElement(elem *list.Element) {
	c.lru.Remove(elem)
	entry := elem.Value.(*cacheEntry) //nolint:errcheck // list only contains *cacheEntry
	delete(c.items, entry.query)
}

func copyResults(results []Result) []Result {
	copied := make([]Result, len(results))
	copy(copied, results)
	return copied
}
