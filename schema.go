package sparse

import (
	"fmt"
	"strings"
)

// KeyType constrains the value type of a schema's primary key and selects
// its order-preserving key encoding.
type KeyType int

const (
	// KeyString encodes a NUL-free UTF-8 string, NUL-terminated.
	KeyString = KeyType(iota + 1)
	// KeyInt64 encodes a signed 64-bit integer, fixed width.
	KeyInt64
	// KeyUint64 encodes an unsigned 64-bit integer, fixed width.
	KeyUint64
	// KeyBytes encodes an arbitrary byte string, 0x00-escaped and terminated.
	KeyBytes
)

func (kt KeyType) String() string {
	switch kt {
	case KeyString:
		return "string"
	case KeyInt64:
		return "int64"
	case KeyUint64:
		return "uint64"
	case KeyBytes:
		return "bytes"
	default:
		return fmt.Sprintf("KeyType(%d)", int(kt))
	}
}

func (kt KeyType) valid() bool {
	return kt >= KeyString && kt <= KeyBytes
}

// Schema identifies a record type: a schema name plus the designated primary
// key column and its value type. A declared key type is required so that the
// codec can impose a consistent total ordering over generated keys.
// Immutable once constructed.
type Schema struct {
	name       string
	primaryKey string
	keyType    KeyType
}

// NewSchema validates the names and returns the schema.
func NewSchema(name, primaryKey string, keyType KeyType) (*Schema, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := CheckColumnName(primaryKey); err != nil {
		return nil, err
	}
	if !keyType.valid() {
		return nil, fmt.Errorf("schema %q: invalid key type %v", name, keyType)
	}
	return &Schema{name: name, primaryKey: primaryKey, keyType: keyType}, nil
}

// MustSchema is NewSchema for schemas declared as package variables.
func MustSchema(name, primaryKey string, keyType KeyType) *Schema {
	return must(NewSchema(name, primaryKey, keyType))
}

func (s *Schema) Name() string       { return s.name }
func (s *Schema) PrimaryKey() string { return s.primaryKey }
func (s *Schema) KeyType() KeyType   { return s.keyType }

func (s *Schema) String() string {
	return fmt.Sprintf("%s(%s %v)", s.name, s.primaryKey, s.keyType)
}

// CheckColumnName rejects column names that would corrupt the key encoding.
// Names are stored without compression inside keys and delimited by a NUL
// byte, so they must be non-empty and NUL-free.
func CheckColumnName(name string) error {
	if name == "" {
		return &InvalidNameError{name, "empty column name"}
	}
	if strings.IndexByte(name, 0) >= 0 {
		return &InvalidNameError{name, "column name contains NUL"}
	}
	return nil
}

func checkName(name string) error {
	if name == "" {
		return &InvalidNameError{name, "empty schema name"}
	}
	if strings.IndexByte(name, 0) >= 0 {
		return &InvalidNameError{name, "schema name contains NUL"}
	}
	return nil
}
