package sparse

import (
	"bytes"
	"math"
	"testing"
)

func TestRevisionKeyRoundTrip(t *testing.T) {
	tests := []struct {
		schema *Schema
		pk     any
		col    string
		ts     int64
	}{
		{employeeSchema, int64(12), "Name", 100},
		{employeeSchema, int64(12), "DateOfHire", 1},
		{employeeSchema, int64(-5), "Name", MaxTimestamp},
		{employeeSchema, int64(math.MinInt64), "a", 0},
		{MustSchema("s", "k", KeyString), "bryan", "Employer", 42},
		{MustSchema("s", "k", KeyString), "", "col with spaces", 42},
		{MustSchema("u", "k", KeyUint64), uint64(math.MaxUint64), "x", 7},
		{MustSchema("b", "k", KeyBytes), []byte{1, 0, 2, 0xFF}, "x", 7},
	}
	for _, tt := range tests {
		rng := must(tt.schema.RowRange(tt.pk))
		key := encodeRevisionKey(rng.From, tt.col, tt.ts)

		if bytes.Compare(key, rng.From) < 0 || bytes.Compare(key, rng.To) >= 0 {
			t.Errorf("** key %x outside row range [%x, %x)", key, rng.From, rng.To)
		}

		col, ts, err := decodeRevisionKey(key, len(rng.From))
		noerr(t, err)
		eq(t, col, tt.col)
		eq(t, ts, tt.ts)
	}
}

func TestKeyOrderingInvariant(t *testing.T) {
	emp := employeeSchema
	empStr := MustSchema("employee2", "Id", KeyString)

	// Tuples in strictly ascending (schemaName, primaryKey, columnName,
	// timestamp) order; encodings must sort the same way.
	type tup struct {
		schema *Schema
		pk     any
		col    string
		ts     int64
	}
	ordered := []tup{
		{emp, int64(math.MinInt64), "a", 0},
		{emp, int64(-1), "a", 0},
		{emp, int64(0), "a", 0},
		{emp, int64(12), "DateOfHire", 1},
		{emp, int64(12), "DateOfHire", 2},
		{emp, int64(12), "DateOfHire", MaxTimestamp},
		{emp, int64(12), "Employer", 1},
		{emp, int64(12), "a", 1},
		{emp, int64(12), "ab", 1},
		{emp, int64(12), "b", 1},
		{emp, int64(13), "a", 1},
		{emp, int64(math.MaxInt64), "a", 1},
		{empStr, "a", "col", 5},
		{empStr, "a", "col", 6},
		{empStr, "ab", "col", 1},
		{empStr, "b", "col", 1},
	}

	var prev []byte
	for i, tt := range ordered {
		rng := must(tt.schema.RowRange(tt.pk))
		key := encodeRevisionKey(rng.From, tt.col, tt.ts)
		if prev != nil && bytes.Compare(prev, key) >= 0 {
			t.Errorf("** tuple %d: %x not greater than predecessor %x", i, key, prev)
		}
		prev = key
	}
}

func TestRowRangeContiguity(t *testing.T) {
	// Every revision of a row falls inside its range; revisions of the
	// neighboring primary keys fall outside.
	rng := must(employeeSchema.RowRange(int64(12)))
	inside := encodeRevisionKey(rng.From, "Name", 100)
	before := encodeRevisionKey(must(employeeSchema.RowRange(int64(11))).From, "zzz", MaxTimestamp)
	after := encodeRevisionKey(must(employeeSchema.RowRange(int64(13))).From, "", 0)

	if !(bytes.Compare(rng.From, inside) <= 0 && bytes.Compare(inside, rng.To) < 0) {
		t.Errorf("** inside key %x not within [%x, %x)", inside, rng.From, rng.To)
	}
	if bytes.Compare(before, rng.From) >= 0 {
		t.Errorf("** key of pk 11 %x not below range start %x", before, rng.From)
	}
	if bytes.Compare(after, rng.To) < 0 {
		t.Errorf("** key of pk 13 %x inside range ending %x", after, rng.To)
	}
}

func TestDecodeRevisionKeyErrors(t *testing.T) {
	rng := must(employeeSchema.RowRange(int64(12)))
	key := encodeRevisionKey(rng.From, "Name", 100)

	if _, _, err := decodeRevisionKey(key[:len(rng.From)+3], len(rng.From)); err == nil {
		t.Errorf("** truncated key decoded without error")
	}

	corrupt := bytes.Clone(key)
	corrupt[len(corrupt)-9] = 'x' // clobber the column terminator
	if _, _, err := decodeRevisionKey(corrupt, len(rng.From)); err == nil {
		t.Errorf("** corrupt key decoded without error")
	}
}

func TestPrimaryKeyTypeMismatch(t *testing.T) {
	if _, err := employeeSchema.RowRange("not an int"); err == nil {
		t.Errorf("** string accepted as int64 primary key")
	}
	if _, err := MustSchema("s", "k", KeyString).RowRange("a\x00b"); err == nil {
		t.Errorf("** string primary key with NUL accepted")
	}
}
