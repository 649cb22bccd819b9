package sparse

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"log/slog"
)

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	buf = ensureCapacity(buf, newLen)
	return off, buf[:newLen]
}

func appendRaw(buf []byte, chunk []byte) []byte {
	n := len(chunk)
	off, buf := grow(buf, n)
	copy(buf[off:], chunk)
	return buf
}

func appendString(buf []byte, v string) []byte {
	n := len(v)
	off, buf := grow(buf, n)
	copy(buf[off:], v)
	return buf
}

// appendTimestamp appends a fixed-width big-endian encoding of ts whose
// lexicographic order matches the signed numeric order of the timestamps.
func appendTimestamp(buf []byte, ts int64) []byte {
	off, buf := grow(buf, 8)
	binary.BigEndian.PutUint64(buf[off:], uint64(ts)^(1<<63))
	return buf
}

func decodeTimestamp(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63))
}

func appendUvarint(buf []byte, v uint64) []byte {
	var vb [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(vb[:], v)
	return appendRaw(buf, vb[:n])
}

// inc treats data as a big-endian number and increments it in place.
// Returns false if the value is all-0xFF and cannot be incremented.
func inc(data []byte) bool {
	n := len(data)
	for i := n - 1; i >= 0; i-- {
		if data[i] != 0xFF {
			for j := i; j < n; j++ {
				data[j]++
			}
			return true
		}
	}
	return false
}

type bytesBuilder struct {
	Buf []byte
}

var _ io.Writer = (*bytesBuilder)(nil)

func (bb *bytesBuilder) Write(p []byte) (n int, err error) {
	bb.Buf = appendRaw(bb.Buf, p)
	return len(p), nil
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func hexstr(b []byte) string {
	if b == nil {
		return "<nil>"
	}
	if len(b) == 0 {
		return "<empty>"
	}
	return hex.EncodeToString(b)
}

func hexAttr(key string, b []byte) slog.Attr {
	return slog.String(key, hexstr(b))
}
