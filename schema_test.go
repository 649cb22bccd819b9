package sparse

import (
	"errors"
	"testing"
)

func TestNewSchemaValidation(t *testing.T) {
	tests := []struct {
		name, pk string
		keyType  KeyType
		ok       bool
	}{
		{"employee", "Id", KeyInt64, true},
		{"employee", "Id", KeyString, true},
		{"", "Id", KeyInt64, false},
		{"emp\x00loyee", "Id", KeyInt64, false},
		{"employee", "", KeyInt64, false},
		{"employee", "I\x00d", KeyInt64, false},
		{"employee", "Id", KeyType(99), false},
	}
	for _, tt := range tests {
		_, err := NewSchema(tt.name, tt.pk, tt.keyType)
		if (err == nil) != tt.ok {
			t.Errorf("** NewSchema(%q, %q, %v) error = %v, wanted ok=%v", tt.name, tt.pk, tt.keyType, err, tt.ok)
		}
	}
}

func TestCheckColumnName(t *testing.T) {
	noerr(t, CheckColumnName("DateOfHire"))
	noerr(t, CheckColumnName("with spaces and ünïcode"))

	err := CheckColumnName("bad\x00name")
	var invalid *InvalidNameError
	if !errors.As(err, &invalid) {
		t.Fatalf("** got %v, wanted InvalidNameError", err)
	}
	eq(t, invalid.Name, "bad\x00name")

	if CheckColumnName("") == nil {
		t.Errorf("** empty column name accepted")
	}
}
