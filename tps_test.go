package sparse

import (
	"testing"
)

func TestRowProjection(t *testing.T) {
	row := newRow(MaxTimestamp)
	row.Set("Employer", 100, "SAIC")
	row.Set("Employer", 200, "SYSTAP")
	row.Set("Name", 100, "Bryan Thompson")
	row.Set("Nickname", 150, "bryan")
	row.Set("Nickname", 250, nil) // tombstone

	deepEqual(t, row.AsMap(100, nil), map[string]any{
		"Employer": "SAIC",
		"Name":     "Bryan Thompson",
	})
	deepEqual(t, row.AsMap(150, nil), map[string]any{
		"Employer": "SAIC",
		"Name":     "Bryan Thompson",
		"Nickname": "bryan",
	})
	deepEqual(t, row.AsMap(200, nil), map[string]any{
		"Employer": "SYSTAP",
		"Name":     "Bryan Thompson",
		"Nickname": "bryan",
	})
	// The tombstone hides Nickname from 250 on.
	deepEqual(t, row.AsMap(MaxTimestamp, nil), map[string]any{
		"Employer": "SYSTAP",
		"Name":     "Bryan Thompson",
	})
	// No revision at or before 50: nothing visible.
	deepEqual(t, row.AsMap(50, nil), map[string]any{})
}

func TestRowProjectionFilter(t *testing.T) {
	row := newRow(MaxTimestamp)
	row.Set("a", 1, "x")
	row.Set("b", 1, "y")
	deepEqual(t, row.AsMap(MaxTimestamp, Names("b")), map[string]any{"b": "y"})
	deepEqual(t, row.AsMap(MaxTimestamp, NamePrefix("a")), map[string]any{"a": "x"})
	deepEqual(t, row.AsMap(MaxTimestamp, FilterFunc(func(string) bool { return false })), map[string]any{})
}

func TestRowScanOrder(t *testing.T) {
	row := newRow(MaxTimestamp)
	// Insert out of scan order; iteration must still be columns by name,
	// timestamps ascending.
	row.Set("b", 2, "b2")
	row.Set("a", 2, "a2")
	row.Set("a", 1, "a1")
	row.Set("b", 1, nil)

	var got []Revision
	for rev := range row.All() {
		got = append(got, rev)
	}
	deepEqual(t, got, []Revision{
		{"a", 1, "a1"},
		{"a", 2, "a2"},
		{"b", 1, nil},
		{"b", 2, "b2"},
	})

	// Restartable: a second full pass sees the same sequence.
	var again []Revision
	for rev := range row.All() {
		again = append(again, rev)
	}
	deepEqual(t, again, got)

	// Early break must not corrupt the row.
	for range row.All() {
		break
	}
	eq(t, row.Len(), 4)
}

func TestRowSetOverwritesSameTimestamp(t *testing.T) {
	row := newRow(MaxTimestamp)
	row.Set("a", 5, "old")
	row.Set("a", 5, "new")
	eq(t, row.Len(), 1)
	rev, ok := row.Get("a")
	eq(t, ok, true)
	deepEqual(t, rev, Revision{"a", 5, "new"})
}
