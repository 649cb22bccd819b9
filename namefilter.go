package sparse

import (
	"sort"
	"strings"
)

// NameFilter selects the column names a scan retains. Implementations must
// be stateless: a filter is reused across calls and may be evaluated
// concurrently.
type NameFilter interface {
	Accept(column string) bool
}

// FilterFunc adapts a plain function to a NameFilter. A FilterFunc has no
// wire representation and cannot be submitted to a partitioned index; use
// Names or NamePrefix for that.
type FilterFunc func(column string) bool

func (f FilterFunc) Accept(column string) bool { return f(column) }

// Names returns a filter accepting exactly the given column names.
func Names(names ...string) NameFilter {
	set := make(nameSetFilter, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

type nameSetFilter map[string]struct{}

func (f nameSetFilter) Accept(column string) bool {
	_, ok := f[column]
	return ok
}

func (f nameSetFilter) sorted() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamePrefix returns a filter accepting column names with the given prefix.
func NamePrefix(prefix string) NameFilter {
	return namePrefixFilter(prefix)
}

type namePrefixFilter string

func (f namePrefixFilter) Accept(column string) bool {
	return strings.HasPrefix(column, string(f))
}

func acceptName(filter NameFilter, column string) bool {
	return filter == nil || filter.Accept(column)
}
