package sparse

import (
	"fmt"
	"iter"
	"sort"
	"strings"
)

// Revision is one timestamped value of one column. A nil Value is a
// tombstone: the column was deleted as of Timestamp.
type Revision struct {
	Column    string
	Timestamp int64
	Value     any
}

// Row is the materialized result of scanning a logical row: for each
// retained column, the sequence of revisions visible under the scan's
// timestamp ceiling. Rows are read-only result values; revisions later than
// the ceiling were never recorded into the row at all.
type Row struct {
	asOf    int64
	writeTS int64
	cols    []*rowColumn
	byName  map[string]*rowColumn
}

type rowColumn struct {
	name string
	revs []Revision // ascending by timestamp
}

func newRow(asOf int64) *Row {
	return &Row{asOf: asOf, byName: make(map[string]*rowColumn)}
}

// AsOf returns the timestamp ceiling the row was scanned under.
func (r *Row) AsOf() int64 { return r.asOf }

// WriteTimestamp returns the resolved timestamp of the atomic write this row
// is the read-back of, or 0 if the row is the result of a pure read. This is
// how a caller using AutoTimestamp or AutoTimestampUnique learns the
// server-assigned timestamp.
func (r *Row) WriteTimestamp() int64 { return r.writeTS }

// Set records a revision. The caller has already applied the timestamp
// ceiling and the name filter; Set accepts whatever it is given.
func (r *Row) Set(column string, ts int64, value any) {
	col := r.byName[column]
	if col == nil {
		col = &rowColumn{name: column}
		r.byName[column] = col
		// Scan order is column name order; entries almost always arrive
		// sorted already.
		i := sort.Search(len(r.cols), func(i int) bool {
			return r.cols[i].name >= column
		})
		r.cols = append(r.cols, nil)
		copy(r.cols[i+1:], r.cols[i:])
		r.cols[i] = col
	}
	rev := Revision{Column: column, Timestamp: ts, Value: value}
	if n := len(col.revs); n > 0 && col.revs[n-1].Timestamp > ts {
		i := sort.Search(n, func(i int) bool {
			return col.revs[i].Timestamp >= ts
		})
		if i < n && col.revs[i].Timestamp == ts {
			col.revs[i] = rev
			return
		}
		col.revs = append(col.revs, Revision{})
		copy(col.revs[i+1:], col.revs[i:])
		col.revs[i] = rev
		return
	} else if n > 0 && col.revs[n-1].Timestamp == ts {
		col.revs[n-1] = rev
		return
	}
	col.revs = append(col.revs, rev)
}

// Get returns the most recent recorded revision of a column.
func (r *Row) Get(column string) (Revision, bool) {
	col := r.byName[column]
	if col == nil || len(col.revs) == 0 {
		return Revision{}, false
	}
	return col.revs[len(col.revs)-1], true
}

// AsMap projects the row to a plain column-to-value map as of ts: per
// column, the value of the revision with the largest timestamp not greater
// than ts. Columns whose visible revision is a tombstone, columns with no
// revision at or before ts, and columns rejected by the optional filter are
// absent from the map.
func (r *Row) AsMap(ts int64, filter NameFilter) map[string]any {
	m := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if !acceptName(filter, col.name) {
			continue
		}
		rev, ok := col.visibleAt(ts)
		if !ok || rev.Value == nil {
			continue
		}
		m[col.name] = rev.Value
	}
	return m
}

func (col *rowColumn) visibleAt(ts int64) (Revision, bool) {
	// Last revision with Timestamp <= ts.
	i := sort.Search(len(col.revs), func(i int) bool {
		return col.revs[i].Timestamp > ts
	})
	if i == 0 {
		return Revision{}, false
	}
	return col.revs[i-1], true
}

// All iterates every recorded revision in scan order: columns in name order,
// revisions in ascending timestamp order within a column. The sequence is
// finite and restartable. The auto-increment routine relies on it to find
// the latest numeric value of a counter column regardless of the read-side
// projection.
func (r *Row) All() iter.Seq[Revision] {
	return func(yield func(Revision) bool) {
		for _, col := range r.cols {
			for _, rev := range col.revs {
				if !yield(rev) {
					return
				}
			}
		}
	}
}

// Len returns the number of recorded revisions.
func (r *Row) Len() int {
	var n int
	for _, col := range r.cols {
		n += len(col.revs)
	}
	return n
}

func (r *Row) String() string {
	var buf strings.Builder
	buf.WriteString("Row{")
	first := true
	for rev := range r.All() {
		if !first {
			buf.WriteString(", ")
		}
		first = false
		if rev.Value == nil {
			fmt.Fprintf(&buf, "%s@%d=<deleted>", rev.Column, rev.Timestamp)
		} else {
			fmt.Fprintf(&buf, "%s@%d=%v", rev.Column, rev.Timestamp, rev.Value)
		}
	}
	buf.WriteByte('}')
	return buf.String()
}
