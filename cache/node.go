package cache

// nilIdx marks an absent link or an empty list end.
const nilIdx int32 = -1

// node is one key/value pair stored in the LRU arena.
// Links are arena indices rather than pointers: prev points toward the
// LRU end, next toward the MRU end.
type node struct {
	key string // immutable while the slot is live
	val string

	prev int32
	next int32
}

// size is the number of bytes the entry is charged against the budget.
func (n *node) size() int64 { return int64(len(n.key) + len(n.val)) }
