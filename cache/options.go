package cache

import (
	"context"
	"log/slog"

	"github.com/IvanBrykalov/stripedlru/internal/util"
)

const (
	// DefaultMaxSize is the total byte budget used when Options.MaxSize is unset.
	DefaultMaxSize int64 = 1 << 30
	// DefaultMinShardSize is the smallest per-shard budget Striped accepts
	// when Options.MinShardSize is unset.
	DefaultMinShardSize int64 = 1 << 20
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity: removed to make room for a new or grown entry.
	EvictCapacity EvictReason = iota
	// EvictPurge: removed by Purge or Close.
	EvictPurge
)

// String returns a stable lowercase label for the reason.
func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictPurge:
		return "purge"
	default:
		return "unknown"
	}
}

// Hasher maps a key to a 64-bit value used to pick its shard.
// It must be deterministic for the lifetime of the cache.
type Hasher func(key string) uint64

// Shard hashers available for Options.Hasher.
var (
	// HashXX is 64-bit xxHash (the default).
	HashXX Hasher = util.XXHash
	// HashFNV is 64-bit FNV-1a.
	HashFNV Hasher = util.Fnv64a
)

// HashBlake2b returns a keyed BLAKE2b hasher. Pick a random seed per
// process to keep shard placement unpredictable to clients.
func HashBlake2b(seed []byte) Hasher { return util.Blake2b(seed) }

// Options configures the cache. Zero values are safe;
// defaults are applied by the constructors:
//   - MaxSize <= 0      => DefaultMaxSize (Striped only; NewLRU panics)
//   - Shards <= 0       => auto (≈ 2*GOMAXPROCS, power of two)
//   - MinShardSize <= 0 => DefaultMinShardSize
//   - nil Hasher        => HashXX
//   - nil Metrics       => NoopMetrics
//   - nil Logger        => slog.Default()
type Options struct {
	// MaxSize is the byte budget: Σ len(key)+len(value) over resident entries.
	// Striped splits it evenly across shards (floor division).
	MaxSize int64

	// Shards is the number of independently locked partitions.
	Shards int

	// MinShardSize rejects configurations whose per-shard budget is smaller.
	MinShardSize int64

	// Hasher routes keys to shards.
	Hasher Hasher

	// Loader fetches a value on a miss in Striped.GetOrLoad.
	Loader func(ctx context.Context, key string) (string, error)

	// OnEvict is called for every eviction under the shard lock; keep it
	// lightweight and never call back into the cache from it.
	OnEvict func(key, value string, reason EvictReason)

	Metrics Metrics
	Logger  *slog.Logger
}
