package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/IvanBrykalov/stripedlru/internal/util"
)

// Striped partitions keys across independent Concurrent shards.
// Each key lives in exactly one shard, chosen by hash(key) mod Shards,
// so per-key semantics are those of a single LRU with MaxSize/Shards
// bytes. Operations on different shards run in parallel; there is no
// cache-wide lock and no operation spans two shards.
//
// All methods are safe for concurrent use by multiple goroutines.
type Striped struct {
	shards    []Concurrent
	hash      Hasher
	shardSize int64
	closed    atomic.Bool

	loader func(ctx context.Context, key string) (string, error)
	sf     singleflight.Group
}

// NewStriped builds a striped cache from opt, applying the defaults
// documented on Options. It fails with ErrShardTooSmall when
// MaxSize/Shards is below MinShardSize; no shard is allocated then.
func NewStriped(opt Options) (*Striped, error) {
	if opt.MaxSize <= 0 {
		opt.MaxSize = DefaultMaxSize
	}
	if opt.MinShardSize <= 0 {
		opt.MinShardSize = DefaultMinShardSize
	}
	if opt.Shards <= 0 {
		opt.Shards = util.ReasonableShardCount()
	}
	if opt.Hasher == nil {
		opt.Hasher = HashXX
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}

	shardSize := opt.MaxSize / int64(opt.Shards)
	if shardSize < opt.MinShardSize {
		return nil, fmt.Errorf("%w: %d bytes over %d shards gives %d per shard, need at least %d",
			ErrShardTooSmall, opt.MaxSize, opt.Shards, shardSize, opt.MinShardSize)
	}

	s := &Striped{
		shards:    make([]Concurrent, opt.Shards),
		hash:      opt.Hasher,
		shardSize: shardSize,
		loader:    opt.Loader,
	}
	shardOpt := opt
	shardOpt.MaxSize = shardSize
	for i := range s.shards {
		s.shards[i].init(shardOpt)
	}

	opt.Logger.Debug("striped cache ready",
		slog.String("component", "striped"),
		slog.Int("shards", opt.Shards),
		slog.Int64("shard_size", shardSize),
		slog.Int64("max_size", opt.MaxSize),
	)
	return s, nil
}

// MustNewStriped is like NewStriped but panics on a configuration error.
func MustNewStriped(opt Options) *Striped {
	s, err := NewStriped(opt)
	if err != nil {
		panic(err)
	}
	return s
}

// ---- Storage implementation ----

// Put inserts or updates key→value in its shard. See LRU.Put.
func (s *Striped) Put(key, value string) bool {
	if s.closed.Load() {
		return false
	}
	return s.shard(key).Put(key, value)
}

// PutIfAbsent inserts key→value only if key is absent from its shard.
func (s *Striped) PutIfAbsent(key, value string) bool {
	if s.closed.Load() {
		return false
	}
	return s.shard(key).PutIfAbsent(key, value)
}

// Set updates an existing key in its shard.
func (s *Striped) Set(key, value string) bool {
	if s.closed.Load() {
		return false
	}
	return s.shard(key).Set(key, value)
}

// Delete removes key from its shard.
func (s *Striped) Delete(key string) bool {
	if s.closed.Load() {
		return false
	}
	return s.shard(key).Delete(key)
}

// Get returns the value for key and promotes it within its shard.
func (s *Striped) Get(key string) (string, bool) {
	if s.closed.Load() {
		return "", false
	}
	return s.shard(key).Get(key)
}

// ---- extras ----

// GetOrLoad returns the value for key; on a miss it calls Options.Loader
// and stores the result with Put. Concurrent loads of one key are
// coalesced: the Loader runs once with a context that keeps ctx's values
// but not its cancellation, so a caller giving up only ends its own wait.
// A miss is reported to Metrics once per call. A loaded value larger
// than the shard budget is returned but not cached.
func (s *Striped) GetOrLoad(ctx context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	if s.loader == nil {
		return "", ErrNoLoader
	}

	// The flight outlives any single caller; each caller stops waiting on
	// its own ctx below.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(key, func() (any, error) {
		// Another flight may have filled the key between our miss and now.
		if v, ok := s.shard(key).peek(key); ok {
			return v, nil
		}
		v, err := s.loader(loadCtx, key)
		if err != nil {
			return "", err
		}
		s.Put(key, v)
		return v, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Len returns the number of resident entries across all shards.
// Shards are visited one at a time, so the total is not a snapshot.
func (s *Striped) Len() int {
	total := 0
	for i := range s.shards {
		total += s.shards[i].Len()
	}
	return total
}

// Size returns the resident bytes across all shards.
func (s *Striped) Size() int64 {
	var total int64
	for i := range s.shards {
		total += s.shards[i].Size()
	}
	return total
}

// MaxSize returns the effective total budget, ShardSize * ShardCount.
func (s *Striped) MaxSize() int64 { return s.shardSize * int64(len(s.shards)) }

// ShardSize returns the per-shard byte budget.
func (s *Striped) ShardSize() int64 { return s.shardSize }

// ShardCount returns the number of shards.
func (s *Striped) ShardCount() int { return len(s.shards) }

// ShardFor returns the index of the shard that owns key.
func (s *Striped) ShardFor(key string) int {
	return util.ShardIndex(s.hash(key), len(s.shards))
}

// Close marks the cache closed and purges every shard. Later operations
// fail or miss. Close is soft: a call already past its closed check may
// still land in a shard after the purge.
func (s *Striped) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	for i := range s.shards {
		s.shards[i].Purge()
	}
	return nil
}

// shard picks the owner of key.
func (s *Striped) shard(key string) *Concurrent {
	return &s.shards[s.ShardFor(key)]
}
