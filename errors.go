package sparse

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSchema is returned when a procedure is constructed without a schema.
	ErrNoSchema = errors.New("no schema")

	// ErrNoPrimaryKey is returned when a procedure is constructed without a
	// primary key, or when a written property set carries no (or a nil) value
	// for the schema's primary key column.
	ErrNoPrimaryKey = errors.New("no primary key")

	// ErrUnknownVersion is returned when decoding a wire-encoded procedure or
	// row whose format version is not recognized.
	ErrUnknownVersion = errors.New("unknown wire format version")

	// ErrRowScanUnsupported is returned by Store.Scan. The logical row scan
	// is a declared part of the surface with no defined behavior yet.
	ErrRowScanUnsupported = errors.New("logical row scan not supported")

	// ErrFilterNotEncodable is returned when submitting a procedure whose
	// name filter has no wire representation to a partitioned index.
	ErrFilterNotEncodable = errors.New("name filter not encodable")
)

// InvalidNameError reports a schema or column name that would corrupt the
// key encoding, such as a name containing the NUL terminator byte.
type InvalidNameError struct {
	Name string
	Msg  string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Msg)
}

// DecodeError reports malformed data encountered while decoding an index
// key, an entry value or a wire-encoded procedure. It is fatal to the
// in-progress procedure.
type DecodeError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func decodeErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DecodeError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}
