package sparse

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
)

// Key layout of one column revision:
//
//	[schemaName] NUL [primaryKey] [columnName] NUL [timestamp]
//
// The schema name and column name are NUL-free, so every boundary is
// unambiguous, and the encoding is a bijection on (schemaName, primaryKey,
// columnName, timestamp) that sorts in exactly that tuple order.

// RowRange is the key interval [From, To) covering every revision of one
// logical row.
type RowRange struct {
	From []byte // inclusive; also the row prefix
	To   []byte // exclusive
}

// RowRange returns the key range of the row identified by primaryKey.
func (s *Schema) RowRange(primaryKey any) (RowRange, error) {
	from, err := s.rowPrefix(nil, primaryKey)
	if err != nil {
		return RowRange{}, err
	}
	to := slices.Clone(from)
	if !inc(to) {
		// Unreachable: the prefix always contains the schema name terminator.
		return RowRange{}, fmt.Errorf("row prefix has no successor: %x", from)
	}
	return RowRange{From: from, To: to}, nil
}

// rowPrefix appends [schemaName NUL primaryKey] to buf.
func (s *Schema) rowPrefix(buf []byte, primaryKey any) ([]byte, error) {
	buf = appendString(buf, s.name)
	buf = append(buf, 0)
	return s.appendPrimaryKey(buf, primaryKey)
}

func (s *Schema) appendPrimaryKey(buf []byte, pk any) ([]byte, error) {
	switch s.keyType {
	case KeyString:
		v, ok := pk.(string)
		if !ok {
			return nil, badPrimaryKey(s, pk)
		}
		if strings.IndexByte(v, 0) >= 0 {
			return nil, &InvalidNameError{v, "string primary key contains NUL"}
		}
		buf = appendString(buf, v)
		return append(buf, 0), nil
	case KeyInt64:
		v, ok := asInt64(pk)
		if !ok {
			return nil, badPrimaryKey(s, pk)
		}
		off, buf := grow(buf, 8)
		binary.BigEndian.PutUint64(buf[off:], uint64(v)^(1<<63))
		return buf, nil
	case KeyUint64:
		v, ok := asUint64(pk)
		if !ok {
			return nil, badPrimaryKey(s, pk)
		}
		off, buf := grow(buf, 8)
		binary.BigEndian.PutUint64(buf[off:], v)
		return buf, nil
	case KeyBytes:
		v, ok := pk.([]byte)
		if !ok {
			return nil, badPrimaryKey(s, pk)
		}
		// Escape NUL as 00 FF, terminate with 00 00. Keeps the encoding
		// prefix-free and order-preserving for arbitrary byte strings.
		for _, b := range v {
			if b == 0 {
				buf = append(buf, 0, 0xFF)
			} else {
				buf = append(buf, b)
			}
		}
		return append(buf, 0, 0), nil
	default:
		return nil, fmt.Errorf("schema %q: invalid key type %v", s.name, s.keyType)
	}
}

func badPrimaryKey(s *Schema, pk any) error {
	return fmt.Errorf("schema %q: primary key %v (%T) is not a valid %v", s.name, pk, pk, s.keyType)
}

// encodeRevisionKey appends [columnName NUL timestamp] to a copy of the row
// prefix. The column name must already be validated.
func encodeRevisionKey(rowPrefix []byte, column string, ts int64) []byte {
	buf := make([]byte, 0, len(rowPrefix)+len(column)+9)
	buf = appendRaw(buf, rowPrefix)
	buf = appendString(buf, column)
	buf = append(buf, 0)
	return appendTimestamp(buf, ts)
}

// decodeRevisionKey extracts the column name and timestamp from a revision
// key. prefixLen is the length of the row prefix the key was scanned under,
// which is always known because the scan bounds were built from it.
func decodeRevisionKey(key []byte, prefixLen int) (column string, ts int64, err error) {
	// [prefix][column >=1 byte][NUL][ts 8 bytes]
	if len(key) < prefixLen+10 {
		return "", 0, decodeErrf(key, prefixLen, nil, "revision key too short")
	}
	nul := len(key) - 9
	if key[nul] != 0 {
		return "", 0, decodeErrf(key, nul, nil, "revision key missing column terminator")
	}
	col := key[prefixLen:nul]
	if bytes.IndexByte(col, 0) >= 0 {
		return "", 0, decodeErrf(key, prefixLen, nil, "revision key has NUL inside column name")
	}
	return string(col), decodeTimestamp(key[nul+1:]), nil
}

func asInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	default:
		return 0, false
	}
}

func asUint64(v any) (uint64, bool) {
	switch v := v.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	default:
		return 0, false
	}
}
