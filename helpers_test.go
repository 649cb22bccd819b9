package sparse

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

var employeeSchema = MustSchema("employee", "Id", KeyInt64)

func testLogger(t testing.TB) *slog.Logger {
	if testing.Verbose() {
		return slog.Default()
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t testing.TB) *Store {
	t.Helper()
	return NewStore(NewBTreeIndex(), Options{Logger: testLogger(t)})
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func eq[T comparable](t testing.TB, a, e T) {
	if a != e {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func noerr(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("** unexpected error: %v", err)
	}
}
