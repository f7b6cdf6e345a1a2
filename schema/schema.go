package schema

import "github.com/pkg/errors"

// ErrTooManyFields is returned when a schema would exceed MaxFields.
var ErrTooManyFields = errors.New("schema: too many fields")

// ErrNameTooLong is returned when a field name exceeds MaxNameLength.
// Schema names are not length-checked.
var ErrNameTooLong = errors.New("schema: name too long")

// Schema is the immutable, compiled representation of one message
// layout: a display name, a version tag, a default endianness, and an
// ordered field list. Once returned from Builder.Build or descriptor.Load
// it is never mutated; decode and encode only read it.
type Schema struct {
	Name    string
	Version uint8
	Endian  Endianness
	Fields  []Field
}

// FieldByName returns the index of the first field named name, or -1.
func (s *Schema) FieldByName(name string) int {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

func validateName(name string) error {
	if len(name) > MaxNameLength {
		return errors.Wrapf(ErrNameTooLong, "%q exceeds %d characters", name, MaxNameLength)
	}
	return nil
}
