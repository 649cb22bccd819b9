package sparse

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// property is one column-to-value assignment in a write.
type property struct {
	name  string
	value any
}

// propertyList is the deterministic, name-ordered form of a written
// property set. It is constructed once and treated as immutable for the
// lifetime of one procedure invocation, so the index insert order is
// reproducible on whatever node ends up executing the write.
type propertyList []property

func newPropertyList(props map[string]any) propertyList {
	pl := make(propertyList, 0, len(props))
	for name, value := range props {
		pl = append(pl, property{name, value})
	}
	sort.Slice(pl, func(i, j int) bool { return pl[i].name < pl[j].name })
	return pl
}

func (pl propertyList) get(name string) (any, bool) {
	i := sort.Search(len(pl), func(i int) bool { return pl[i].name >= name })
	if i < len(pl) && pl[i].name == name {
		return pl[i].value, true
	}
	return nil, false
}

// AtomicWriteRead writes one revision per column of a property set, all at
// the same resolved timestamp, then reads the row back at that timestamp.
// The write and the read-back execute as one atomic unit relative to other
// procedures on the same row, so the read-back always reflects exactly this
// write plus prior revisions, never a concurrent writer's half-applied
// columns.
type AtomicWriteRead struct {
	read  AtomicRead // trailing read phase; also carries schema/pk/filter
	props propertyList
}

// NewAtomicWriteRead constructs an atomic write of the property set.
//
// The property set must include a non-nil value for the schema's primary key
// column. A nil value for any other column writes a tombstone. A value of
// AutoIncrement is replaced with the next counter value for that column at
// apply time.
//
// timestamp is either an explicit positive revision timestamp (the caller
// then owns write-write conflict semantics: two writes at the same timestamp
// overwrite each other), AutoTimestamp or AutoTimestampUnique. The filter
// only restricts the trailing read; it has no effect on the write.
func NewAtomicWriteRead(schema *Schema, props map[string]any, timestamp int64, filter NameFilter) (*AtomicWriteRead, error) {
	if schema == nil {
		return nil, ErrNoSchema
	}
	if props == nil {
		return nil, fmt.Errorf("no property set")
	}
	if timestamp < AutoTimestamp {
		return nil, fmt.Errorf("invalid timestamp %d", timestamp)
	}
	pl := newPropertyList(props)
	return newAtomicWriteRead(schema, pl, timestamp, filter)
}

func newAtomicWriteRead(schema *Schema, pl propertyList, timestamp int64, filter NameFilter) (*AtomicWriteRead, error) {
	primaryKey, ok := pl.get(schema.PrimaryKey())
	if !ok || primaryKey == nil {
		return nil, fmt.Errorf("%w: no value for column %q", ErrNoPrimaryKey, schema.PrimaryKey())
	}
	for _, prop := range pl {
		if err := CheckColumnName(prop.name); err != nil {
			return nil, err
		}
	}
	read, err := NewAtomicRead(schema, primaryKey, timestamp, filter)
	if err != nil {
		return nil, err
	}
	return &AtomicWriteRead{read: *read, props: pl}, nil
}

func (p *AtomicWriteRead) RowKey() ([]byte, error) {
	return p.read.RowKey()
}

func (p *AtomicWriteRead) Apply(env *Env) (*Row, error) {
	// Resolve the effective write timestamp. Server-assigned timestamps are
	// generated on the executing node: they only need to be consistent
	// within a row, and a row never spans partitions.
	ts := p.read.timestamp
	switch ts {
	case AutoTimestamp:
		ts = env.Clock.Timestamp()
	case AutoTimestampUnique:
		ts = env.Clock.UniqueTimestamp()
	}

	schema := p.read.schema
	rng, err := schema.RowRange(p.read.primaryKey)
	if err != nil {
		return nil, err
	}

	logger := env.log()
	logger.LogAttrs(context.Background(), slog.LevelDebug, "atomic write",
		slog.String("schema", schema.Name()), slog.Int64("ts", ts),
		slog.Int("ncolumns", len(p.props)))

	for _, prop := range p.props {
		value := prop.value
		if _, ok := value.(autoIncMarker); ok {
			next, err := p.nextCounter(env, prop.name, ts)
			if err != nil {
				return nil, err
			}
			value = next
		}
		key := encodeRevisionKey(rng.From, prop.name, ts)
		val, err := encodeValue(nil, value)
		if err != nil {
			return nil, err
		}
		if err := env.Index.Insert(key, val); err != nil {
			return nil, err
		}
	}

	// Read back at the resolved timestamp, under the caller's read filter.
	row, err := scanRow(env, schema, p.read.primaryKey, ts, p.read.filter)
	if err != nil {
		return nil, err
	}
	if row != nil {
		row.writeTS = ts
	}
	return row, nil
}

// nextCounter computes the auto-increment value for a column: one greater
// than the latest numeric revision at or before the write timestamp, or 0
// if no numeric revision exists. This rereads the row restricted to the one
// column, which is a bit heavyweight but keeps the counter consistent with
// whatever history the index actually retains.
func (p *AtomicWriteRead) nextCounter(env *Env, column string, ts int64) (int64, error) {
	row, err := scanRow(env, p.read.schema, p.read.primaryKey, ts, Names(column))
	if err != nil {
		return 0, err
	}

	var counter int64
	if row != nil {
		for rev := range row.All() {
			if rev.Value == nil {
				continue
			}
			prev, ok := asInt64(rev.Value)
			if !ok {
				// Not fatal: skip the revision and keep looking.
				env.log().LogAttrs(context.Background(), slog.LevelWarn,
					"non-numeric value on auto-increment column",
					slog.String("schema", p.read.schema.Name()),
					slog.String("column", column),
					slog.Int64("ts", rev.Timestamp))
				continue
			}
			counter = prev + 1
		}
	}

	env.log().LogAttrs(context.Background(), slog.LevelDebug, "auto-increment",
		slog.String("column", column), slog.Int64("counter", counter))
	return counter, nil
}
