package cache

import "math"

// LRU is a single-shard cache bounded by a byte budget: the sum of
// len(key)+len(value) over resident entries never exceeds MaxSize.
// Entries live in an arena and are ordered by recency in an intrusive
// doubly linked list (head=LRU, tail=MRU); a map indexes them by key.
//
// LRU is not safe for concurrent use. Wrap it in Concurrent, or use
// Striped, when several goroutines share it.
type LRU struct {
	nodes []node           // arena; a slot is live iff index points at it
	free  []int32          // reusable arena slots
	index map[string]int32 // key -> arena slot

	head int32 // LRU end
	tail int32 // MRU end

	maxSize int64
	curSize int64

	onEvict func(key, value string, reason EvictReason)
	metrics Metrics
}

// NewLRU builds an LRU with a budget of opt.MaxSize bytes.
// Only MaxSize, OnEvict and Metrics are consulted.
// It panics if MaxSize is not positive.
func NewLRU(opt Options) *LRU {
	if opt.MaxSize <= 0 {
		panic("cache: MaxSize must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	return &LRU{
		index:   make(map[string]int32),
		head:    nilIdx,
		tail:    nilIdx,
		maxSize: opt.MaxSize,
		onEvict: opt.OnEvict,
		metrics: opt.Metrics,
	}
}

// Put inserts key or replaces its value, then marks it most recently used.
// Older entries are evicted as needed. Returns false, without touching
// the cache, if the entry alone is larger than MaxSize.
func (c *LRU) Put(key, value string) bool {
	need := entrySize(key, value)
	if need > c.maxSize {
		c.metrics.Reject()
		return false
	}
	if i, ok := c.index[key]; ok {
		c.update(i, value)
		return true
	}
	c.insert(key, value, need)
	return true
}

// PutIfAbsent inserts key only if it is not cached yet.
func (c *LRU) PutIfAbsent(key, value string) bool {
	need := entrySize(key, value)
	if need > c.maxSize {
		c.metrics.Reject()
		return false
	}
	if _, ok := c.index[key]; ok {
		return false
	}
	c.insert(key, value, need)
	return true
}

// Set replaces the value of an existing key and marks it most recently used.
// Returns false if key is absent or the new entry is larger than MaxSize.
func (c *LRU) Set(key, value string) bool {
	if entrySize(key, value) > c.maxSize {
		c.metrics.Reject()
		return false
	}
	i, ok := c.index[key]
	if !ok {
		return false
	}
	c.update(i, value)
	return true
}

// Delete removes key. Returns false if it was not cached.
func (c *LRU) Delete(key string) bool {
	i, ok := c.index[key]
	if !ok {
		return false
	}
	c.remove(i)
	return true
}

// Get returns the value of key and marks it most recently used.
func (c *LRU) Get(key string) (string, bool) {
	i, ok := c.index[key]
	if !ok {
		c.metrics.Miss()
		return "", false
	}
	c.moveToBack(i)
	c.metrics.Hit()
	return c.nodes[i].val, true
}

// peek is Get without promotion or metrics.
func (c *LRU) peek(key string) (string, bool) {
	i, ok := c.index[key]
	if !ok {
		return "", false
	}
	return c.nodes[i].val, true
}

// Len returns the number of resident entries.
func (c *LRU) Len() int { return len(c.index) }

// Size returns the number of bytes charged against the budget.
func (c *LRU) Size() int64 { return c.curSize }

// MaxSize returns the byte budget.
func (c *LRU) MaxSize() int64 { return c.maxSize }

// Purge evicts every entry, oldest first, and releases the arena.
func (c *LRU) Purge() {
	for c.head != nilIdx {
		c.evict(c.head, EvictPurge)
	}
	c.nodes = nil
	c.free = nil
}

// -------------------- internals --------------------

func entrySize(key, value string) int64 { return int64(len(key) + len(value)) }

// insert places a new entry at MRU after making room for need bytes.
func (c *LRU) insert(key, value string, need int64) {
	c.makeRoom(need, nilIdx)

	i := c.alloc()
	c.nodes[i] = node{key: key, val: value, prev: nilIdx, next: nilIdx}
	c.pushBack(i)
	c.index[key] = i
	c.curSize += need
	c.metrics.Resize(1, need)
}

// update promotes slot i, makes room for the size change, then swaps the value.
func (c *LRU) update(i int32, value string) {
	c.moveToBack(i)
	delta := int64(len(value) - len(c.nodes[i].val))
	c.makeRoom(delta, i)

	c.nodes[i].val = value
	c.curSize += delta
	c.metrics.Resize(0, delta)
}

// makeRoom evicts from the LRU end until extra more bytes fit.
// Slot keep is never evicted.
func (c *LRU) makeRoom(extra int64, keep int32) {
	for c.curSize+extra > c.maxSize && c.head != nilIdx && c.head != keep {
		c.evict(c.head, EvictCapacity)
	}
}

// alloc returns a free arena slot, growing the arena if none is left.
func (c *LRU) alloc() int32 {
	if n := len(c.free); n > 0 {
		i := c.free[n-1]
		c.free = c.free[:n-1]
		return i
	}
	if len(c.nodes) == math.MaxInt32 {
		panic("cache: arena exhausted")
	}
	c.nodes = append(c.nodes, node{})
	return int32(len(c.nodes) - 1)
}

// pushBack links slot i at the MRU end.
func (c *LRU) pushBack(i int32) {
	n := &c.nodes[i]
	n.prev = c.tail
	n.next = nilIdx
	if c.tail != nilIdx {
		c.nodes[c.tail].next = i
	} else {
		c.head = i
	}
	c.tail = i
}

// unlink detaches slot i from the list, leaving its links cleared.
func (c *LRU) unlink(i int32) {
	n := &c.nodes[i]
	switch {
	case n.prev == nilIdx && n.next == nilIdx: // singleton
		c.head, c.tail = nilIdx, nilIdx
	case n.prev == nilIdx: // LRU end
		c.head = n.next
		c.nodes[n.next].prev = nilIdx
	case n.next == nilIdx: // MRU end
		c.tail = n.prev
		c.nodes[n.prev].next = nilIdx
	default:
		c.nodes[n.prev].next = n.next
		c.nodes[n.next].prev = n.prev
	}
	n.prev, n.next = nilIdx, nilIdx
}

// moveToBack promotes slot i to MRU in O(1).
func (c *LRU) moveToBack(i int32) {
	if i == c.tail {
		return
	}
	c.unlink(i)
	c.pushBack(i)
}

// remove unlinks slot i, drops its index entry and returns the slot to
// the free list. The evicted pair is returned for callbacks.
func (c *LRU) remove(i int32) (key, value string) {
	c.unlink(i)
	n := &c.nodes[i]
	key, value = n.key, n.val
	sz := n.size()

	delete(c.index, key)
	c.curSize -= sz
	*n = node{prev: nilIdx, next: nilIdx}
	c.free = append(c.free, i)
	c.metrics.Resize(-1, -sz)
	return key, value
}

// evict removes slot i and reports it to metrics and OnEvict.
func (c *LRU) evict(i int32, reason EvictReason) {
	k, v := c.remove(i)
	c.metrics.Evict(reason)
	if cb := c.onEvict; cb != nil {
		cb(k, v, reason)
	}
}
