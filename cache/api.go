package cache

// Storage is the five-operation contract shared by LRU, Concurrent and
// Striped. Keys and values are arbitrary byte strings; the only limit is
// the aggregate byte budget.
//
// Ordinary outcomes (key absent, key already present, entry larger than
// the budget) are reported through the boolean result, never as errors.
type Storage interface {
	// Put inserts or updates key→value and promotes it to MRU.
	// Returns false only if the entry alone exceeds the budget.
	Put(key, value string) bool

	// PutIfAbsent inserts key→value only if key is not present.
	PutIfAbsent(key, value string) bool

	// Set updates an existing key and promotes it to MRU.
	// Returns false if key is absent or the entry exceeds the budget.
	Set(key, value string) bool

	// Delete removes key and reports whether it was present.
	Delete(key string) bool

	// Get returns the value for key; a hit promotes it to MRU.
	Get(key string) (string, bool)
}

var (
	_ Storage = (*LRU)(nil)
	_ Storage = (*Concurrent)(nil)
	_ Storage = (*Striped)(nil)
)
