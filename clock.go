package sparse

import (
	"math"
	"sync"
	"time"
)

// MaxTimestamp is greater than or equal to any valid revision timestamp and
// is commonly used as the ceiling when reading the most current row state.
const MaxTimestamp = int64(math.MaxInt64)

// AutoTimestamp requests a server-assigned wall-clock timestamp for a write.
// Wall-clock timestamps are NOT guaranteed unique: two concurrent writers on
// the same row may resolve to the same timestamp, in which case one write
// silently overwrites the other's revisions. Use AutoTimestampUnique when
// that matters.
const AutoTimestamp = int64(-1)

// AutoTimestampUnique requests a server-assigned timestamp that is strictly
// increasing on the executing node.
const AutoTimestampUnique = int64(0)

// Clock supplies server-assigned write timestamps. Timestamps only need to
// be consistent within a row, and a row never spans partitions, so a
// node-local clock suffices.
type Clock interface {
	// Timestamp returns the current wall-clock time in milliseconds.
	// Not guaranteed unique across calls.
	Timestamp() int64

	// UniqueTimestamp returns a timestamp strictly greater than any
	// previously returned by this clock, tracking wall-clock time when
	// possible.
	UniqueTimestamp() int64
}

// SystemClock returns a Clock backed by the system time.
func SystemClock() Clock {
	return &systemClock{}
}

type systemClock struct {
	mu   sync.Mutex
	last int64
}

func (c *systemClock) Timestamp() int64 {
	return time.Now().UnixMilli()
}

func (c *systemClock) UniqueTimestamp() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := time.Now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}
