package util

import "unsafe"

// CacheLineSize is a reasonable default for most modern CPUs.
// std has runtime/internal/sys.CacheLineSize but it's unexported.
const CacheLineSize = 64

// CacheLinePad is a dummy field used to separate hot fields into distinct
// cache lines and reduce false sharing. Place between groups of hot fields.
type CacheLinePad struct{ _ [CacheLineSize]byte }

// compile-time check: the pad is exactly one line.
var _ [CacheLineSize - int(unsafe.Sizeof(CacheLinePad{}))]byte
