package sparse

import (
	"testing"
)

func TestValueRoundTrip(t *testing.T) {
	values := []any{
		"Bryan Thompson",
		int64(12),
		int64(-1),
		uint64(1 << 60),
		3.5,
		true,
		[]byte{0, 1, 2},
	}
	for _, v := range values {
		data := must(encodeValue(nil, v))
		got, err := decodeValue(data)
		noerr(t, err)
		deepEqual(t, got, v)
	}
}

func TestValueTombstone(t *testing.T) {
	data := must(encodeValue(nil, nil))
	deepEqual(t, data, []byte{vmTombstone})
	got, err := decodeValue(data)
	noerr(t, err)
	if got != nil {
		t.Errorf("** tombstone decoded to %v, wanted nil", got)
	}
}

func TestValueDecodeErrors(t *testing.T) {
	if _, err := decodeValue(nil); err == nil {
		t.Errorf("** empty value decoded without error")
	}
	if _, err := decodeValue([]byte{0xEE, 1, 2}); err == nil {
		t.Errorf("** unknown marker decoded without error")
	}
	if _, err := decodeValue([]byte{vmTombstone, 1}); err == nil {
		t.Errorf("** tombstone with trailing bytes decoded without error")
	}
	if _, err := encodeValue(nil, AutoIncrement); err == nil {
		t.Errorf("** auto-increment marker encoded as a stored value")
	}
}
