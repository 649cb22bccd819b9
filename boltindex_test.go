package sparse

import (
	"path/filepath"
	"testing"
)

func openTestBolt(t testing.TB, path string) *BoltIndex {
	t.Helper()
	ndx := must(OpenBolt(path, BoltOptions{IsTesting: true}))
	t.Cleanup(func() { ndx.Close() })
	return ndx
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.db")
	st := NewStore(openTestBolt(t, path), Options{Logger: testLogger(t)})

	must(st.Write(employeeSchema, map[string]any{
		"Id": int64(12), "Name": "Bryan Thompson", "Employer": "SAIC",
	}, 100, nil))
	must(st.Write(employeeSchema, map[string]any{
		"Id": int64(12), "Employer": "SYSTAP",
	}, 200, nil))

	deepEqual(t, must(st.Read(employeeSchema, int64(12))), map[string]any{
		"Id": int64(12), "Name": "Bryan Thompson", "Employer": "SYSTAP",
	})

	asOfT0 := must(st.ReadAt(employeeSchema, int64(12), 100, nil))
	deepEqual(t, asOfT0.AsMap(100, nil), map[string]any{
		"Id": int64(12), "Name": "Bryan Thompson", "Employer": "SAIC",
	})
}

func TestBoltReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.db")

	ndx := must(OpenBolt(path, BoltOptions{IsTesting: true}))
	st := NewStore(ndx, Options{Logger: testLogger(t)})
	must(st.Write(employeeSchema, map[string]any{"Id": int64(1), "a": "x"}, 100, nil))
	noerr(t, ndx.Close())

	st = NewStore(openTestBolt(t, path), Options{Logger: testLogger(t)})
	deepEqual(t, must(st.Read(employeeSchema, int64(1))), map[string]any{
		"Id": int64(1), "a": "x",
	})
}

func TestBoltContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.db")
	ndx := openTestBolt(t, path)

	key := encodeRevisionKey(must(employeeSchema.RowRange(int64(1))).From, "a", 100)
	found, err := ndx.Contains(key)
	noerr(t, err)
	eq(t, found, false)

	noerr(t, ndx.Insert(key, must(encodeValue(nil, "x"))))
	found, err = ndx.Contains(key)
	noerr(t, err)
	eq(t, found, true)
}
