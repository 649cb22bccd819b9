package sparse

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Wire format for shipping a procedure to the node owning its row, and for
// shipping the resulting row back. A fixed version header comes first and
// decoding fails closed on any version it does not recognize.
//
// Procedure:
//
//	[ver u16] [kind u8] [schemaName] [pkColumn] [keyType u8] [primaryKey]
//	[timestamp 8] [filter]
//	write only: [ncolumns uvarint] ([name] [value])* ordered by name
//
// Row:
//
//	[ver u16] [present u8]
//	present only: [asOf 8] [writeTS 8] [nrevs uvarint] ([column] [ts 8] [value])*
//
// Strings and value blobs are uvarint-length-prefixed. Values use the column
// value encoding, plus the auto-increment marker which is legal on the wire
// but never stored.
const wireVersion = uint16(1)

const (
	wireProcRead      = byte(1)
	wireProcWriteRead = byte(2)
)

const (
	wireFilterNone   = byte(0)
	wireFilterNames  = byte(1)
	wireFilterPrefix = byte(2)
)

// EncodeProcedure encodes a procedure for submission to a remote index
// node, appending to buf.
func EncodeProcedure(buf []byte, proc Procedure) ([]byte, error) {
	return proc.encode(buf)
}

func (p *AtomicRead) encode(buf []byte) ([]byte, error) {
	buf = appendUint16(buf, wireVersion)
	buf = append(buf, wireProcRead)
	return p.encodeFields(buf)
}

func (p *AtomicRead) encodeFields(buf []byte) ([]byte, error) {
	buf = appendLenString(buf, p.schema.Name())
	buf = appendLenString(buf, p.schema.PrimaryKey())
	buf = append(buf, byte(p.schema.KeyType()))
	pk, err := encodeValue(nil, p.primaryKey)
	if err != nil {
		return nil, err
	}
	buf = appendLenBytes(buf, pk)
	buf = appendTimestamp(buf, p.timestamp)
	return appendFilter(buf, p.filter)
}

func (p *AtomicWriteRead) encode(buf []byte) ([]byte, error) {
	buf = appendUint16(buf, wireVersion)
	buf = append(buf, wireProcWriteRead)
	buf, err := p.read.encodeFields(buf)
	if err != nil {
		return nil, err
	}
	buf = appendUvarint(buf, uint64(len(p.props)))
	for _, prop := range p.props {
		buf = appendLenString(buf, prop.name)
		var val []byte
		if _, ok := prop.value.(autoIncMarker); ok {
			val = []byte{vmAutoInc}
		} else {
			val, err = encodeValue(nil, prop.value)
			if err != nil {
				return nil, err
			}
		}
		buf = appendLenBytes(buf, val)
	}
	return buf, nil
}

// DecodeProcedure decodes a wire-encoded procedure. An unknown format
// version is a hard error.
func DecodeProcedure(data []byte) (Procedure, error) {
	r := wireReader{data: data}
	ver, err := r.uint16()
	if err != nil {
		return nil, err
	}
	if ver != wireVersion {
		return nil, fmt.Errorf("%w: procedure version %d", ErrUnknownVersion, ver)
	}
	kind, err := r.byte()
	if err != nil {
		return nil, err
	}

	schema, primaryKey, timestamp, filter, err := decodeReadFields(&r)
	if err != nil {
		return nil, err
	}

	switch kind {
	case wireProcRead:
		if err := r.expectEOF(); err != nil {
			return nil, err
		}
		return NewAtomicRead(schema, primaryKey, timestamp, filter)

	case wireProcWriteRead:
		n, err := r.count()
		if err != nil {
			return nil, err
		}
		pl := make(propertyList, 0, n)
		var prevName string
		for i := 0; i < n; i++ {
			name, err := r.lenString()
			if err != nil {
				return nil, err
			}
			if i > 0 && name <= prevName {
				return nil, r.errf("write columns out of order: %q after %q", name, prevName)
			}
			prevName = name
			raw, err := r.lenBytes()
			if err != nil {
				return nil, err
			}
			var value any
			if len(raw) == 1 && raw[0] == vmAutoInc {
				value = AutoIncrement
			} else {
				value, err = decodeValue(raw)
				if err != nil {
					return nil, err
				}
			}
			pl = append(pl, property{name, value})
		}
		if err := r.expectEOF(); err != nil {
			return nil, err
		}
		return newAtomicWriteRead(schema, pl, timestamp, filter)

	default:
		return nil, r.errf("unknown procedure kind %#x", kind)
	}
}

func decodeReadFields(r *wireReader) (*Schema, any, int64, NameFilter, error) {
	schemaName, err := r.lenString()
	if err != nil {
		return nil, nil, 0, nil, err
	}
	pkColumn, err := r.lenString()
	if err != nil {
		return nil, nil, 0, nil, err
	}
	kt, err := r.byte()
	if err != nil {
		return nil, nil, 0, nil, err
	}
	schema, err := NewSchema(schemaName, pkColumn, KeyType(kt))
	if err != nil {
		return nil, nil, 0, nil, err
	}
	rawPK, err := r.lenBytes()
	if err != nil {
		return nil, nil, 0, nil, err
	}
	primaryKey, err := decodeValue(rawPK)
	if err != nil {
		return nil, nil, 0, nil, err
	}
	timestamp, err := r.timestamp()
	if err != nil {
		return nil, nil, 0, nil, err
	}
	filter, err := decodeFilter(r)
	if err != nil {
		return nil, nil, 0, nil, err
	}
	return schema, primaryKey, timestamp, filter, nil
}

func appendFilter(buf []byte, filter NameFilter) ([]byte, error) {
	switch f := filter.(type) {
	case nil:
		return append(buf, wireFilterNone), nil
	case nameSetFilter:
		buf = append(buf, wireFilterNames)
		names := f.sorted()
		buf = appendUvarint(buf, uint64(len(names)))
		for _, name := range names {
			buf = appendLenString(buf, name)
		}
		return buf, nil
	case namePrefixFilter:
		buf = append(buf, wireFilterPrefix)
		return appendLenString(buf, string(f)), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrFilterNotEncodable, filter)
	}
}

func decodeFilter(r *wireReader) (NameFilter, error) {
	kind, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch kind {
	case wireFilterNone:
		return nil, nil
	case wireFilterNames:
		n, err := r.count()
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, n)
		for i := 0; i < n; i++ {
			name, err := r.lenString()
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return Names(names...), nil
	case wireFilterPrefix:
		prefix, err := r.lenString()
		if err != nil {
			return nil, err
		}
		return NamePrefix(prefix), nil
	default:
		return nil, r.errf("unknown filter kind %#x", kind)
	}
}

// EncodeRow encodes a procedure result for the trip back to the caller,
// appending to buf. A nil row (absent) has an encoding of its own, distinct
// from an empty row.
func EncodeRow(buf []byte, row *Row) ([]byte, error) {
	buf = appendUint16(buf, wireVersion)
	if row == nil {
		return append(buf, 0), nil
	}
	buf = append(buf, 1)
	buf = appendTimestamp(buf, row.asOf)
	buf = appendTimestamp(buf, row.writeTS)
	buf = appendUvarint(buf, uint64(row.Len()))
	var err error
	for rev := range row.All() {
		buf = appendLenString(buf, rev.Column)
		buf = appendTimestamp(buf, rev.Timestamp)
		var val []byte
		val, err = encodeValue(nil, rev.Value)
		if err != nil {
			return nil, err
		}
		buf = appendLenBytes(buf, val)
	}
	return buf, nil
}

// DecodeRow decodes a wire-encoded procedure result. Returns nil for an
// absent row.
func DecodeRow(data []byte) (*Row, error) {
	r := wireReader{data: data}
	ver, err := r.uint16()
	if err != nil {
		return nil, err
	}
	if ver != wireVersion {
		return nil, fmt.Errorf("%w: row version %d", ErrUnknownVersion, ver)
	}
	present, err := r.byte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, r.expectEOF()
	}
	asOf, err := r.timestamp()
	if err != nil {
		return nil, err
	}
	writeTS, err := r.timestamp()
	if err != nil {
		return nil, err
	}
	n, err := r.count()
	if err != nil {
		return nil, err
	}
	row := newRow(asOf)
	row.writeTS = writeTS
	for i := 0; i < n; i++ {
		column, err := r.lenString()
		if err != nil {
			return nil, err
		}
		ts, err := r.timestamp()
		if err != nil {
			return nil, err
		}
		raw, err := r.lenBytes()
		if err != nil {
			return nil, err
		}
		value, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		row.Set(column, ts, value)
	}
	if err := r.expectEOF(); err != nil {
		return nil, err
	}
	return row, nil
}

func appendUint16(buf []byte, v uint16) []byte {
	off, buf := grow(buf, 2)
	binary.BigEndian.PutUint16(buf[off:], v)
	return buf
}

func appendLenString(buf []byte, s string) []byte {
	buf = appendUvarint(buf, uint64(len(s)))
	return appendString(buf, s)
}

func appendLenBytes(buf []byte, b []byte) []byte {
	buf = appendUvarint(buf, uint64(len(b)))
	return appendRaw(buf, b)
}

// wireReader reads the wire format sequentially, reporting malformed input
// as DecodeError with the offending offset.
type wireReader struct {
	data []byte
	off  int
}

func (r *wireReader) errf(format string, args ...any) error {
	return decodeErrf(r.data, r.off, nil, format, args...)
}

func (r *wireReader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, r.errf("truncated: need %d bytes at offset %d", n, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *wireReader) byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *wireReader) uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *wireReader) timestamp() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return decodeTimestamp(b), nil
}

func (r *wireReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 {
		return 0, r.errf("bad uvarint")
	}
	r.off += n
	return v, nil
}

// count reads an element count and bounds it by the bytes remaining, so a
// crafted count cannot drive an allocation. Every counted element occupies
// at least one byte.
func (r *wireReader) count() (int, error) {
	n, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(len(r.data)-r.off) {
		return 0, r.errf("implausible count %d", n)
	}
	return int(n), nil
}

func (r *wireReader) lenBytes() ([]byte, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if n > math.MaxInt32 {
		return nil, r.errf("implausible length %d", n)
	}
	return r.take(int(n))
}

func (r *wireReader) lenString() (string, error) {
	b, err := r.lenBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *wireReader) expectEOF() error {
	if r.off != len(r.data) {
		return r.errf("%d trailing bytes", len(r.data)-r.off)
	}
	return nil
}
