package sparse

import (
	"iter"
	"log/slog"
)

// Index is the ordered byte-key/byte-value capability that procedures run
// against. Implementations must be safe for concurrent use; atomicity across
// several entries of one row is NOT the index's job; it is provided by the
// executing node serializing procedures per row.
type Index interface {
	// Contains reports whether the exact key is present.
	Contains(key []byte) (bool, error)

	// Insert stores an entry, overwriting any existing value for the key.
	Insert(key, value []byte) error

	// RangeScan iterates entries with fromKey <= key < toKey in ascending
	// key order. Yielded key and value slices are only valid during the
	// yield. The returned sequence is restartable.
	RangeScan(fromKey, toKey []byte) iter.Seq2[[]byte, []byte]
}

// PartitionedIndex is an Index whose key space is split into contiguous
// ranges owned by separate execution nodes. Procedures cannot run in the
// caller's process against such a view; they are encoded and submitted to
// the node owning the routing key, which executes them next to the data and
// returns the encoded row.
type PartitionedIndex interface {
	Index

	// Submit routes the procedure, keyed by the row's encoded key, to the
	// owning node and returns the wire-encoded result row.
	Submit(routingKey []byte, proc Procedure) ([]byte, error)
}

// Env is the execution environment a procedure runs in on the node that owns
// the row: the node-local index, the node's timestamp source, and an
// injected log sink. Procedures read all their context from here rather than
// from process-wide state.
type Env struct {
	Index  Index
	Clock  Clock
	Logger *slog.Logger
}

func (env *Env) log() *slog.Logger {
	if env.Logger != nil {
		return env.Logger
	}
	return slog.Default()
}
