package sparse

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// One-byte markers in front of every encoded column value. vmTombstone and
// vmMsgPack appear in stored index entries; vmAutoInc appears only inside
// wire-encoded write procedures and is substituted by a counter value before
// anything reaches the index.
const (
	vmTombstone = 0x00
	vmMsgPack   = 0x01
	vmAutoInc   = 0x02
)

type autoIncMarker struct{}

// AutoIncrement is a placeholder column value. Writing it instructs the
// write procedure to substitute the next counter value for that column:
// one greater than the latest numeric revision of the column, or 0 if no
// numeric revision exists.
var AutoIncrement any = autoIncMarker{}

func (autoIncMarker) String() string { return "<auto-increment>" }

// encodeValue appends the encoding of a column value to buf. A nil value
// encodes as a tombstone so that a later read sees the column as deleted
// rather than falling back to an older revision.
func encodeValue(buf []byte, v any) ([]byte, error) {
	if v == nil {
		return append(buf, vmTombstone), nil
	}
	if _, ok := v.(autoIncMarker); ok {
		return nil, fmt.Errorf("auto-increment marker must be resolved before encoding")
	}
	buf = append(buf, vmMsgPack)
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	enc.SetSortMapKeys(true)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T column value: %w", v, err)
	}
	return bb.Buf, nil
}

// decodeValue decodes a stored column value. Returns (nil, nil) for a
// tombstone.
func decodeValue(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, decodeErrf(data, 0, nil, "empty column value")
	}
	switch data[0] {
	case vmTombstone:
		if len(data) != 1 {
			return nil, decodeErrf(data, 1, nil, "trailing bytes after tombstone marker")
		}
		return nil, nil
	case vmMsgPack:
		var r bytes.Reader
		r.Reset(data[1:])
		dec := msgpack.GetDecoder()
		dec.Reset(&r)
		dec.UseLooseInterfaceDecoding(true)
		v, err := dec.DecodeInterface()
		msgpack.PutDecoder(dec)
		if err != nil {
			return nil, decodeErrf(data, 1, err, "failed to decode column value")
		}
		return v, nil
	default:
		return nil, decodeErrf(data, 0, nil, "unknown column value marker %#x", data[0])
	}
}
