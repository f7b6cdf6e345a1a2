// Package schema is the typed, immutable representation of a message
// layout: field order, per-field type/width/endianness/modifiers, lookup
// tables, and match-branch cases. A Schema is built once (by Builder or
// by descriptor.Load) and never mutated afterward.
package schema

// FieldType is the closed tagged variant of field kinds a schema field
// may declare, per spec.md §3.
type FieldType uint8

const (
	TypeUint FieldType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeBitfield
	TypeSkip
	TypeASCII
	TypeHex
	TypeBase64
	TypeBytes
	TypeEnum
	TypeUDec
	TypeSDec
	TypeMatch
)

func (t FieldType) String() string {
	switch t {
	case TypeUint:
		return "uint"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeBitfield:
		return "bitfield"
	case TypeSkip:
		return "skip"
	case TypeASCII:
		return "ascii"
	case TypeHex:
		return "hex"
	case TypeBase64:
		return "base64"
	case TypeBytes:
		return "bytes"
	case TypeEnum:
		return "enum"
	case TypeUDec:
		return "udec"
	case TypeSDec:
		return "sdec"
	case TypeMatch:
		return "match"
	default:
		return "unknown"
	}
}

// Endianness selects the byte order used to read/write a byte-addressable
// field's width, either overridden per field or inherited from the
// schema's default.
type Endianness uint8

const (
	Big Endianness = iota
	Little
)

func (e Endianness) String() string {
	if e == Big {
		return "big"
	}
	return "little"
}

// Limits mirror the suggested defaults of spec.md §6. Builder rejects
// schemas that exceed MaxFields, MaxNameLength, MaxCasesPerMatch,
// MaxLookupEntries or MaxMatchListLen; MaxPayload is only the encoder's
// initial buffer capacity, since storage here is growable Go slices.
const (
	MaxFields        = 32
	MaxNameLength    = 32
	MaxCasesPerMatch = 16
	MaxLookupEntries = 16
	MaxPayload       = 256
	MaxMatchListLen  = 8
)

// FixedSize reports the number of bytes a byte-addressable field of this
// type occupies, and whether the type has a single fixed byte width at
// all (bitfield, bool, and match do not - see schema.Field for their
// actual sizing rules). String and byte types are fixed-length: Size bytes.
func (t FieldType) FixedSize(f *Field) (int, bool) {
	switch t {
	case TypeUint, TypeInt, TypeFloat:
		return int(f.Size), true
	case TypeUDec, TypeSDec:
		return 1, true
	case TypeEnum:
		return int(f.Size), true
	case TypeASCII, TypeHex, TypeBase64, TypeBytes:
		return int(f.Size), true
	case TypeSkip:
		return int(f.Size), true
	default:
		return 0, false
	}
}
