package sparse

import (
	"context"
	"log/slog"
)

// Procedure is the unit of atomic execution against one logical row: an
// atomic read, or an atomic write followed by a confirmatory read.
// Procedures are short-lived values constructed per call, executed once
// (locally, or on the node owning the row after a wire round-trip) and
// discarded.
type Procedure interface {
	// Apply executes the procedure against the index in env. A nil row
	// with a nil error means the row was not found.
	Apply(env *Env) (*Row, error)

	// RowKey returns the encoded key of the target row, used for routing
	// and per-row serialization.
	RowKey() ([]byte, error)

	encode(buf []byte) ([]byte, error)
}

// AtomicRead reads one logical row: every revision of every retained column
// with timestamps up to the ceiling, as a single atomic unit.
type AtomicRead struct {
	schema     *Schema
	primaryKey any
	timestamp  int64
	filter     NameFilter
}

// NewAtomicRead constructs an atomic read of the row identified by
// primaryKey. Pass MaxTimestamp to read the most current state; filter may
// be nil.
func NewAtomicRead(schema *Schema, primaryKey any, timestamp int64, filter NameFilter) (*AtomicRead, error) {
	if schema == nil {
		return nil, ErrNoSchema
	}
	if primaryKey == nil {
		return nil, ErrNoPrimaryKey
	}
	if _, err := schema.rowPrefix(nil, primaryKey); err != nil {
		return nil, err
	}
	return &AtomicRead{
		schema:     schema,
		primaryKey: primaryKey,
		timestamp:  timestamp,
		filter:     filter,
	}, nil
}

func (p *AtomicRead) Apply(env *Env) (*Row, error) {
	return scanRow(env, p.schema, p.primaryKey, p.timestamp, p.filter)
}

func (p *AtomicRead) RowKey() ([]byte, error) {
	return p.schema.rowPrefix(nil, p.primaryKey)
}

// scanRow is the scan routine shared by the read and write procedures: it
// range-scans the row's key interval and records every retained revision
// into a fresh Row.
//
// Returns nil iff zero entries were scanned for the row; a row whose
// columns were all filtered out is still present, as an empty Row. A decode
// failure mid-scan aborts the procedure; no partial Row is returned.
func scanRow(env *Env, schema *Schema, primaryKey any, timestamp int64, filter NameFilter) (*Row, error) {
	rng, err := schema.RowRange(primaryKey)
	if err != nil {
		return nil, err
	}

	logger := env.log()
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		logger.LogAttrs(context.Background(), slog.LevelDebug, "row scan",
			hexAttr("from", rng.From), hexAttr("to", rng.To),
			slog.Int64("ts", timestamp))
	}

	row := newRow(timestamp)
	var nscanned int
	var scanErr error
	for k, v := range env.Index.RangeScan(rng.From, rng.To) {
		nscanned++

		col, revTS, err := decodeRevisionKey(k, len(rng.From))
		if err != nil {
			scanErr = err
			break
		}
		if !acceptName(filter, col) {
			continue
		}
		if revTS > timestamp {
			// Newer than the ceiling; never recorded.
			continue
		}
		val, err := decodeValue(v)
		if err != nil {
			scanErr = err
			break
		}
		row.Set(col, revTS, val)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	if nscanned == 0 {
		logger.LogAttrs(context.Background(), slog.LevelDebug, "row not found",
			slog.String("schema", schema.Name()), hexAttr("prefix", rng.From))
		return nil, nil
	}
	// Note: MAY be empty if all columns were filtered out or are newer than
	// the ceiling; that is distinct from an absent row.
	return row, nil
}
