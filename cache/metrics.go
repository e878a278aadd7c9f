package cache

// Metrics exposes cache-level observability hooks.
// Hooks run under the shard lock and must be safe for concurrent use
// across shards.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	// Reject counts writes refused because the entry alone exceeds the budget.
	Reject()
	// Resize reports a change of resident entries and bytes; both may be negative.
	Resize(entries int, bytes int64)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is the default when no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Evict(EvictReason) {}
func (NoopMetrics) Reject()           {}
func (NoopMetrics) Resize(int, int64) {}

var _ Metrics = NoopMetrics{}
