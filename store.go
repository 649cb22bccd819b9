package sparse

import (
	"iter"
	"log/slog"
)

// Store is the public surface of the sparse row store: atomic reads and
// writes of logical rows against an Index. The index variant (local vs
// partitioned) is resolved once, when the store is constructed, not
// re-checked per call.
type Store struct {
	ndx  Index
	exec executor
}

// Options configures a Store.
type Options struct {
	// Logger receives debug output from procedure execution on local
	// indexes. Defaults to slog.Default().
	Logger *slog.Logger

	// Clock assigns server-side write timestamps on local indexes.
	// Defaults to SystemClock(). Partitioned views use their nodes' clocks.
	Clock Clock
}

// NewStore wraps an index as a row store.
func NewStore(ndx Index, opt Options) *Store {
	st := &Store{ndx: ndx}
	if view, ok := ndx.(PartitionedIndex); ok {
		st.exec = &remoteExecutor{view: view}
	} else {
		clock := opt.Clock
		if clock == nil {
			clock = SystemClock()
		}
		st.exec = &localExecutor{
			env:   Env{Index: ndx, Clock: clock, Logger: opt.Logger},
			locks: newRowLocks(),
		}
	}
	return st
}

// Index returns the underlying index.
func (st *Store) Index() Index {
	return st.ndx
}

// Read reads the most current state of the row identified by primaryKey as
// a plain column-to-value map. Returns nil if there is no row for that
// primary key.
func (st *Store) Read(schema *Schema, primaryKey any) (map[string]any, error) {
	row, err := st.ReadAt(schema, primaryKey, MaxTimestamp, nil)
	if err != nil || row == nil {
		return nil, err
	}
	return row.AsMap(MaxTimestamp, nil), nil
}

// ReadAt atomically reads the row identified by primaryKey: every revision
// of every column accepted by the optional filter, with timestamps up to
// the given ceiling. Returns nil if there is no row for that primary key,
// distinct from a present row whose columns were all filtered out, which is
// an empty non-nil Row.
func (st *Store) ReadAt(schema *Schema, primaryKey any, timestamp int64, filter NameFilter) (*Row, error) {
	proc, err := NewAtomicRead(schema, primaryKey, timestamp, filter)
	if err != nil {
		return nil, err
	}
	return st.execute(proc)
}

// Write atomically writes one revision per column of props at a single
// resolved timestamp and returns an atomic read of the row's post-update
// state at that timestamp. No other write lands between the write and the
// read-back.
//
// props must include a non-nil value for the schema's primary key column. A
// nil value for any other column deletes it (writes a tombstone); a value
// of AutoIncrement is replaced with the next counter value. timestamp is an
// explicit revision timestamp, AutoTimestamp or AutoTimestampUnique; the
// resolved value is available from the returned row's WriteTimestamp. The
// optional filter restricts only the read-back.
func (st *Store) Write(schema *Schema, props map[string]any, timestamp int64, filter NameFilter) (*Row, error) {
	proc, err := NewAtomicWriteRead(schema, props, timestamp, filter)
	if err != nil {
		return nil, err
	}
	return st.execute(proc)
}

// Scan is the reserved logical row scan over a primary key interval. It is
// part of the intended surface but has no defined behavior yet: a scan must
// be atomic per row, and bounding it by logical rows rather than index
// entries needs support from the executing node that does not exist.
// It always fails with ErrRowScanUnsupported.
func (st *Store) Scan(schema *Schema, fromKey, toKey any, limit int, timestamp int64, filter NameFilter) (iter.Seq[*Row], error) {
	return nil, ErrRowScanUnsupported
}

func (st *Store) execute(proc Procedure) (*Row, error) {
	rowKey, err := proc.RowKey()
	if err != nil {
		return nil, err
	}
	return st.exec.execute(proc, rowKey)
}

// executor is the dispatch decision made once at store construction: run
// procedures in-process, or ship them to the owning node.
type executor interface {
	execute(proc Procedure, rowKey []byte) (*Row, error)
}

type localExecutor struct {
	env   Env
	locks *rowLocks
}

func (ex *localExecutor) execute(proc Procedure, rowKey []byte) (*Row, error) {
	ex.locks.lock(rowKey)
	defer ex.locks.unlock(rowKey)
	return proc.Apply(&ex.env)
}

type remoteExecutor struct {
	view PartitionedIndex
}

func (ex *remoteExecutor) execute(proc Procedure, rowKey []byte) (*Row, error) {
	result, err := ex.view.Submit(rowKey, proc)
	if err != nil {
		return nil, err
	}
	return DecodeRow(result)
}
