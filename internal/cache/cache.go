// Package cache holds resolved change sets between calls.
//
// Results are keyed by (document ID, threshold). The cache is explicitly
// owned and explicitly invalidated: per-document on edit, wholesale on
// threshold or mode change. Nothing else in the module carries state
// across resolves.
package cache

import (
	"container/list"
	"sync"
)

// DefaultMaxEntries bounds the cache when no limit is configured.
const DefaultMaxEntries = 1024

type key struct {
	documentID  string
	thresholdMs int64
}

type entry struct {
	key    key
	result string
}

// ResultCache is a bounded LRU of resolved new-content strings.
// Safe for concurrent use.
type ResultCache struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[key]*list.Element
}

// New creates a cache bounded to maxEntries (DefaultMaxEntries if <= 0).
func New(maxEntries int) *ResultCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &ResultCache{
		max:     maxEntries,
		order:   list.New(),
		entries: make(map[key]*list.Element),
	}
}

// Get returns the cached result for (documentID, thresholdMs).
func (c *ResultCache) Get(documentID string, thresholdMs int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key{documentID, thresholdMs}]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).result, true
}

// Put stores a resolved result, evicting the least recently used entry
// when the cache is full.
func (c *ResultCache) Put(documentID string, thresholdMs int64, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{documentID, thresholdMs}
	if el, ok := c.entries[k]; ok {
		el.Value.(*entry).result = result
		c.order.MoveToFront(el)
		return
	}

	c.entries[k] = c.order.PushFront(&entry{key: k, result: result})
	for len(c.entries) > c.max {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

// Invalidate drops every cached result for a document, across all
// thresholds. Call on document edit.
func (c *ResultCache) Invalidate(documentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*entry)
		if e.key.documentID == documentID {
			c.order.Remove(el)
			delete(c.entries, e.key)
		}
		el = next
	}
}

// Reset drops everything. Call on threshold or mode change.
func (c *ResultCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[key]*list.Element)
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
