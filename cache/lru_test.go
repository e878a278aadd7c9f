package cache

import (
	"math/rand"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- test helpers ---

// verify walks the list from the LRU end and checks every structural
// invariant: back links, index bijection, byte accounting and budget.
func verify(t testing.TB, c *LRU) {
	t.Helper()

	var sum int64
	count := 0
	prev := nilIdx
	for i := c.head; i != nilIdx; i = c.nodes[i].next {
		n := &c.nodes[i]
		require.Equal(t, prev, n.prev, "back link of %q", n.key)
		j, ok := c.index[n.key]
		require.True(t, ok, "key %q reachable but not indexed", n.key)
		require.Equal(t, i, j, "index of %q points elsewhere", n.key)
		sum += n.size()
		count++
		require.LessOrEqual(t, count, len(c.index), "list longer than index (cycle?)")
		prev = i
	}
	require.Equal(t, prev, c.tail, "tail is not the last reachable node")
	require.Equal(t, len(c.index), count, "index has unreachable entries")
	require.Equal(t, sum, c.curSize, "size accounting drifted")
	require.LessOrEqual(t, c.curSize, c.maxSize, "budget exceeded")
}

// order lists keys from LRU to MRU.
func order(c *LRU) []string {
	var out []string
	for i := c.head; i != nilIdx; i = c.nodes[i].next {
		out = append(out, c.nodes[i].key)
	}
	return out
}

type evicted struct {
	key, value string
	reason     EvictReason
}

// recMetrics records every hook call. Safe for concurrent use.
type recMetrics struct {
	mu      sync.Mutex
	hits    int
	misses  int
	rejects int
	evicts  map[EvictReason]int
	entries int
	bytes   int64
}

func newRecMetrics() *recMetrics { return &recMetrics{evicts: map[EvictReason]int{}} }

func (m *recMetrics) Hit()    { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *recMetrics) Miss()   { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *recMetrics) Reject() { m.mu.Lock(); m.rejects++; m.mu.Unlock() }
func (m *recMetrics) Evict(r EvictReason) {
	m.mu.Lock()
	m.evicts[r]++
	m.mu.Unlock()
}
func (m *recMetrics) Resize(entries int, bytes int64) {
	m.mu.Lock()
	m.entries += entries
	m.bytes += bytes
	m.mu.Unlock()
}

// filled returns a 10-byte cache holding a(4) b(3) c(3), oldest first.
func filled(t *testing.T, opt Options) *LRU {
	t.Helper()
	opt.MaxSize = 10
	c := NewLRU(opt)
	require.True(t, c.Put("a", "aaa"))
	require.True(t, c.Put("b", "bb"))
	require.True(t, c.Put("c", "cc"))
	require.Equal(t, int64(10), c.Size())
	return c
}

// --- tests ---

func TestLRU_PutGet(t *testing.T) {
	t.Parallel()

	c := NewLRU(Options{MaxSize: 64})
	require.True(t, c.Put("k", "v1"))
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	require.True(t, c.Put("k", "v22"))
	v, ok = c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v22", v)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(4), c.Size())

	_, ok = c.Get("missing")
	assert.False(t, ok)
	verify(t, c)
}

// Inserting 4 bytes into a full 10-byte cache drops only the oldest entry.
func TestLRU_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	c := filled(t, Options{})
	require.True(t, c.Put("d", "ddd"))

	_, ok := c.Get("a")
	assert.False(t, ok, "a is the oldest and must be evicted")
	assert.Equal(t, []string{"b", "c", "d"}, order(c))
	assert.Equal(t, int64(10), c.Size())
	verify(t, c)
}

func TestLRU_GetPromotes(t *testing.T) {
	t.Parallel()

	c := filled(t, Options{})
	_, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c", "a"}, order(c))

	// 4 more bytes: b then c go, a survives.
	require.True(t, c.Put("d", "ddd"))
	assert.Equal(t, []string{"a", "d"}, order(c))
	verify(t, c)
}

func TestLRU_PutUpdatePromotesAndEvictsOthers(t *testing.T) {
	t.Parallel()

	c := filled(t, Options{})
	// a grows by one byte; it is promoted first, so b is the one evicted.
	require.True(t, c.Put("a", "aaaa"))
	assert.Equal(t, []string{"c", "a"}, order(c))
	assert.Equal(t, int64(8), c.Size())

	// Shrinking never evicts.
	require.True(t, c.Put("a", ""))
	assert.Equal(t, []string{"c", "a"}, order(c))
	assert.Equal(t, int64(4), c.Size())
	verify(t, c)
}

// An update that needs the whole budget evicts everything else but keeps itself.
func TestLRU_UpdateToFullBudget(t *testing.T) {
	t.Parallel()

	c := filled(t, Options{})
	require.True(t, c.Put("b", "123456789"))
	assert.Equal(t, []string{"b"}, order(c))
	assert.Equal(t, int64(10), c.Size())
	verify(t, c)
}

func TestLRU_OversizeRejected(t *testing.T) {
	t.Parallel()

	m := newRecMetrics()
	c := filled(t, Options{Metrics: m})
	before := order(c)

	assert.False(t, c.Put("k", "0123456789"), "11 bytes cannot fit in 10")
	assert.False(t, c.PutIfAbsent("k", "0123456789"))
	assert.False(t, c.Put("a", "0123456789"), "oversize update must fail too")
	assert.False(t, c.Set("a", "0123456789"))

	assert.Equal(t, before, order(c))
	assert.Equal(t, int64(10), c.Size())
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "aaa", v)
	assert.Equal(t, 4, m.rejects)
	assert.Zero(t, m.evicts[EvictCapacity])
	verify(t, c)
}

func TestLRU_PutIfAbsent(t *testing.T) {
	t.Parallel()

	c := NewLRU(Options{MaxSize: 32})
	require.True(t, c.PutIfAbsent("k", "v"))
	assert.False(t, c.PutIfAbsent("k", "other"))

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, int64(2), c.Size())
	verify(t, c)
}

func TestLRU_PutIfAbsentConflictDoesNotPromote(t *testing.T) {
	t.Parallel()

	c := filled(t, Options{})
	assert.False(t, c.PutIfAbsent("a", "x"))
	assert.Equal(t, []string{"a", "b", "c"}, order(c))
}

func TestLRU_Set(t *testing.T) {
	t.Parallel()

	c := filled(t, Options{})
	assert.False(t, c.Set("zz", "1"), "Set on a missing key must fail")
	assert.Equal(t, []string{"a", "b", "c"}, order(c))
	assert.Equal(t, int64(10), c.Size())

	require.True(t, c.Set("a", "A"))
	assert.Equal(t, []string{"b", "c", "a"}, order(c))
	assert.Equal(t, int64(8), c.Size())

	// Growing c by 3 evicts b only.
	require.True(t, c.Set("c", "ccccc"))
	assert.Equal(t, []string{"a", "c"}, order(c))
	v, _ := c.Get("c")
	assert.Equal(t, "ccccc", v)
	verify(t, c)
}

func TestLRU_Delete(t *testing.T) {
	t.Parallel()

	c := filled(t, Options{})
	require.True(t, c.Delete("b")) // interior
	assert.Equal(t, []string{"a", "c"}, order(c))
	assert.Equal(t, int64(7), c.Size())
	verify(t, c)

	assert.False(t, c.Delete("b"), "second delete reports absence")
	assert.Equal(t, int64(7), c.Size())

	_, ok := c.Get("b")
	assert.False(t, ok)
}

func TestLRU_DeleteAtEveryPosition(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		"a": {"b", "c"}, // LRU end
		"b": {"a", "c"}, // interior
		"c": {"a", "b"}, // MRU end
	}
	for key, want := range cases {
		c := filled(t, Options{})
		require.True(t, c.Delete(key))
		assert.Equal(t, want, order(c), "delete %q", key)
		verify(t, c)
	}

	// singleton
	c := NewLRU(Options{MaxSize: 4})
	require.True(t, c.Put("x", "y"))
	require.True(t, c.Delete("x"))
	assert.Empty(t, order(c))
	assert.Zero(t, c.Size())
	verify(t, c)

	require.True(t, c.Put("x", "z"), "list must be reusable after emptying")
	verify(t, c)
}

func TestLRU_PromoteAtEveryPosition(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		"a": {"b", "c", "a"},
		"b": {"a", "c", "b"},
		"c": {"a", "b", "c"},
	}
	for key, want := range cases {
		c := filled(t, Options{})
		_, ok := c.Get(key)
		require.True(t, ok)
		assert.Equal(t, want, order(c), "get %q", key)
		verify(t, c)
	}
}

func TestLRU_ReusesArenaSlots(t *testing.T) {
	t.Parallel()

	c := NewLRU(Options{MaxSize: 100})
	for i := 0; i < 10; i++ {
		require.True(t, c.Put("k"+strconv.Itoa(i), "v"))
	}
	slots := len(c.nodes)
	for i := 0; i < 5; i++ {
		require.True(t, c.Delete("k"+strconv.Itoa(i)))
	}
	for i := 10; i < 15; i++ {
		require.True(t, c.Put("k"+strconv.Itoa(i), "v"))
	}
	assert.Equal(t, slots, len(c.nodes), "freed slots must be reused")
	verify(t, c)
}

func TestLRU_EmptyKeyAndValue(t *testing.T) {
	t.Parallel()

	c := NewLRU(Options{MaxSize: 1})
	require.True(t, c.Put("", ""))
	require.True(t, c.Put("x", ""))
	v, ok := c.Get("")
	require.True(t, ok)
	assert.Equal(t, "", v)
	assert.Equal(t, int64(1), c.Size())
	verify(t, c)
}

func TestLRU_OnEvictAndMetrics(t *testing.T) {
	t.Parallel()

	var got []evicted
	m := newRecMetrics()
	c := filled(t, Options{
		Metrics: m,
		OnEvict: func(k, v string, r EvictReason) { got = append(got, evicted{k, v, r}) },
	})

	require.True(t, c.Put("dd", "dddddd")) // 8 bytes: a, b, c all go
	assert.Equal(t, []evicted{
		{"a", "aaa", EvictCapacity},
		{"b", "bb", EvictCapacity},
		{"c", "cc", EvictCapacity},
	}, got)

	c.Get("dd")
	c.Get("nope")
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)
	assert.Equal(t, 3, m.evicts[EvictCapacity])
	assert.Equal(t, c.Len(), m.entries)
	assert.Equal(t, c.Size(), m.bytes)
}

func TestLRU_Purge(t *testing.T) {
	t.Parallel()

	var got []string
	c := filled(t, Options{
		OnEvict: func(k, _ string, r EvictReason) {
			assert.Equal(t, EvictPurge, r)
			got = append(got, k)
		},
	})
	c.Purge()

	assert.Equal(t, []string{"a", "b", "c"}, got, "purge walks from the LRU end")
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Size())
	assert.Nil(t, c.nodes)
	verify(t, c)

	require.True(t, c.Put("k", "v"))
	verify(t, c)
}

// A long chain tears down iteratively.
func TestLRU_PurgeLongChain(t *testing.T) {
	t.Parallel()

	c := NewLRU(Options{MaxSize: 1 << 30})
	for i := 0; i < 200_000; i++ {
		c.Put(strconv.Itoa(i), "")
	}
	c.Purge()
	assert.Zero(t, c.Len())
}

func TestNewLRU_PanicsOnNonPositiveBudget(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewLRU(Options{}) })
	assert.Panics(t, func() { NewLRU(Options{MaxSize: -1}) })
}

// --- model-based check ---

// model is a deliberately naive byte-budget LRU (slice ordered LRU→MRU).
type model struct {
	max  int64
	keys []string
	vals map[string]string
	size int64
}

func (m *model) touch(k string) {
	i := slices.Index(m.keys, k)
	m.keys = append(slices.Delete(m.keys, i, i+1), k)
}

func (m *model) makeRoom(extra int64, keep string, hasKeep bool) {
	for m.size+extra > m.max && len(m.keys) > 0 && !(hasKeep && m.keys[0] == keep) {
		k := m.keys[0]
		m.size -= int64(len(k) + len(m.vals[k]))
		delete(m.vals, k)
		m.keys = m.keys[1:]
	}
}

func (m *model) insert(k, v string) {
	need := int64(len(k) + len(v))
	m.makeRoom(need, "", false)
	m.keys = append(m.keys, k)
	m.vals[k] = v
	m.size += need
}

func (m *model) update(k, v string) {
	m.touch(k)
	delta := int64(len(v) - len(m.vals[k]))
	m.makeRoom(delta, k, true)
	m.vals[k] = v
	m.size += delta
}

func (m *model) put(k, v string) bool {
	if int64(len(k)+len(v)) > m.max {
		return false
	}
	if _, ok := m.vals[k]; ok {
		m.update(k, v)
	} else {
		m.insert(k, v)
	}
	return true
}

func (m *model) putIfAbsent(k, v string) bool {
	if _, ok := m.vals[k]; ok || int64(len(k)+len(v)) > m.max {
		return false
	}
	m.insert(k, v)
	return true
}

func (m *model) set(k, v string) bool {
	if _, ok := m.vals[k]; !ok || int64(len(k)+len(v)) > m.max {
		return false
	}
	m.update(k, v)
	return true
}

func (m *model) del(k string) bool {
	v, ok := m.vals[k]
	if !ok {
		return false
	}
	i := slices.Index(m.keys, k)
	m.keys = slices.Delete(m.keys, i, i+1)
	m.size -= int64(len(k) + len(v))
	delete(m.vals, k)
	return true
}

func (m *model) get(k string) (string, bool) {
	v, ok := m.vals[k]
	if ok {
		m.touch(k)
	}
	return v, ok
}

func TestLRU_MatchesModel(t *testing.T) {
	t.Parallel()

	const budget = 24
	r := rand.New(rand.NewSource(7))
	c := NewLRU(Options{MaxSize: budget})
	m := &model{max: budget, vals: map[string]string{}}

	for step := 0; step < 20_000; step++ {
		k := "k" + strconv.Itoa(r.Intn(12))
		v := strings.Repeat("v", r.Intn(12))

		switch op := r.Intn(5); op {
		case 0:
			require.Equal(t, m.put(k, v), c.Put(k, v), "step %d Put(%q)", step, k)
		case 1:
			require.Equal(t, m.putIfAbsent(k, v), c.PutIfAbsent(k, v), "step %d PutIfAbsent(%q)", step, k)
		case 2:
			require.Equal(t, m.set(k, v), c.Set(k, v), "step %d Set(%q)", step, k)
		case 3:
			require.Equal(t, m.del(k), c.Delete(k), "step %d Delete(%q)", step, k)
		default:
			wv, wok := m.get(k)
			gv, gok := c.Get(k)
			require.Equal(t, wok, gok, "step %d Get(%q)", step, k)
			require.Equal(t, wv, gv, "step %d Get(%q)", step, k)
		}

		verify(t, c)
		want := m.keys
		if len(want) == 0 {
			want = nil
		}
		require.Equal(t, want, order(c), "step %d", step)
		require.Equal(t, m.size, c.Size(), "step %d", step)
	}
}
