// Package cache provides an in-process key/value store bounded by a byte
// budget with least-recently-used eviction, and a striped front that
// spreads keys over independently locked shards.
//
// Design
//
//   - Budget: an entry costs len(key)+len(value) bytes. The sum over
//     resident entries never exceeds MaxSize. A write whose entry alone
//     is larger than MaxSize is refused and leaves the cache untouched.
//
//   - Storage: LRU keeps entries in an arena slice addressed by int32
//     slots, linked into a doubly linked list (head=LRU, tail=MRU), plus
//     a map[string]int32 index. Every operation is O(1) expected.
//
//   - Eviction: before a write is applied, entries are removed from the
//     LRU end until the new or grown entry fits. The entry being written
//     is never evicted. Reads count as use.
//
//   - Concurrency: LRU is single-goroutine. Concurrent adds one mutex.
//     Striped owns N Concurrent shards and routes each key by
//     hash(key) mod N, so a key always lands in the same shard.
//
//   - Observability: Options.Metrics receives Hit/Miss/Evict/Reject/Resize
//     signals (NoopMetrics by default; see metrics/prom), and
//     Options.OnEvict sees every evicted pair.
//
// Basic usage
//
//	c, err := cache.NewStriped(cache.Options{
//	    MaxSize: 64 << 20, // 64 MiB in total
//	    Shards:  16,
//	})
//	if err != nil {
//	    return err // shard budget below MinShardSize
//	}
//	c.Put("a", "1")
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.PutIfAbsent("a", "2") // false: already present
//	c.Set("b", "2")         // false: absent
//	c.Delete("a")
//
// Single shard
//
//	l := cache.NewLRU(cache.Options{MaxSize: 1 << 10})
//	l.Put("k", "v")
//
// Results
//
// Capacity refusals, conflicts and misses are reported as false; they are
// expected outcomes, not errors. Errors come from construction
// (ErrShardTooSmall), from GetOrLoad (ErrNoLoader, ErrClosed, loader and
// context errors) and nowhere else.
package cache
