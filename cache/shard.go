package cache

import (
	"sync"

	"github.com/IvanBrykalov/stripedlru/internal/util"
)

// Concurrent wraps one LRU with one mutex. Every call holds the lock for
// its whole duration, so operations on a Concurrent are totally ordered
// and never observed half-applied.
//
// The zero value is not usable; build one with NewConcurrent.
type Concurrent struct {
	mu  sync.Mutex
	lru *LRU // guarded by mu

	// Striped keeps shards in one slice; pad so neighbouring locks do not
	// share a cache line.
	_ util.CacheLinePad
}

// NewConcurrent builds a locked LRU with a budget of opt.MaxSize bytes.
// It panics if MaxSize is not positive.
func NewConcurrent(opt Options) *Concurrent {
	c := &Concurrent{}
	c.init(opt)
	return c
}

func (c *Concurrent) init(opt Options) { c.lru = NewLRU(opt) }

// Put inserts or updates key→value. See LRU.Put.
func (c *Concurrent) Put(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Put(key, value)
}

// PutIfAbsent inserts key→value only if key is absent. See LRU.PutIfAbsent.
func (c *Concurrent) PutIfAbsent(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.PutIfAbsent(key, value)
}

// Set updates an existing key. See LRU.Set.
func (c *Concurrent) Set(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Set(key, value)
}

// Delete removes key if present.
func (c *Concurrent) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Delete(key)
}

// Get returns the value for key and promotes it on hit.
func (c *Concurrent) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(key)
}

// Len returns the number of resident entries.
func (c *Concurrent) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Size returns the resident bytes.
func (c *Concurrent) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Size()
}

// MaxSize returns the byte budget. It never changes, so no lock is taken.
func (c *Concurrent) MaxSize() int64 { return c.lru.MaxSize() }

// Purge evicts every entry.
func (c *Concurrent) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// peek returns the value for key without promoting it or firing metrics.
func (c *Concurrent) peek(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.peek(key)
}
