package sparse

import "sync"

// rowLocks serializes procedures per logical row. The lock key is the row's
// encoded key prefix, so procedures on different rows proceed concurrently
// while two procedures on the same row never interleave.
type rowLocks struct {
	mu   sync.Mutex
	rows map[string]*rowLock
}

type rowLock struct {
	mu   sync.Mutex
	refs int
}

func newRowLocks() *rowLocks {
	return &rowLocks{rows: make(map[string]*rowLock)}
}

func (l *rowLocks) lock(rowKey []byte) {
	k := string(rowKey)
	l.mu.Lock()
	rl := l.rows[k]
	if rl == nil {
		rl = &rowLock{}
		l.rows[k] = rl
	}
	rl.refs++
	l.mu.Unlock()
	rl.mu.Lock()
}

func (l *rowLocks) unlock(rowKey []byte) {
	k := string(rowKey)
	l.mu.Lock()
	rl := l.rows[k]
	if rl == nil {
		l.mu.Unlock()
		panic("unlock of unlocked row")
	}
	rl.refs--
	if rl.refs == 0 {
		delete(l.rows, k)
	}
	l.mu.Unlock()
	rl.mu.Unlock()
}
