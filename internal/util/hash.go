// Package util contains internal helpers (hashing, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"encoding/binary"
	"hash"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// XXHash is the default shard hasher: 64-bit xxHash of the key bytes.
func XXHash(key string) uint64 {
	return xxhash.Sum64String(key)
}

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

// Fnv64a hashes key with 64-bit FNV-1a. It does not allocate.
func Fnv64a(key string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= fnvPrime64
	}
	return h
}

// Blake2b returns a keyed hasher backed by BLAKE2b with an 8-byte digest.
// Without knowing seed, callers cannot aim many keys at a single shard.
// The seed is truncated to blake2b.Size bytes. Digest states are pooled
// and reset between calls, so steady-state hashing does not allocate.
func Blake2b(seed []byte) func(string) uint64 {
	if len(seed) > blake2b.Size {
		seed = seed[:blake2b.Size]
	}
	key := append([]byte(nil), seed...)
	pool := sync.Pool{New: func() any {
		h, err := blake2b.New(8, key)
		if err != nil {
			// Only possible for an oversized key, which is truncated above.
			panic("util.Blake2b: " + err.Error())
		}
		return &blake2bState{h: h}
	}}
	return func(s string) uint64 {
		st := pool.Get().(*blake2bState)
		st.h.Reset()
		st.buf = append(st.buf[:0], s...)
		_, _ = st.h.Write(st.buf)
		sum := binary.BigEndian.Uint64(st.h.Sum(st.sum[:0]))
		pool.Put(st)
		return sum
	}
}

type blake2bState struct {
	h   hash.Hash
	buf []byte
	sum [8]byte
}
