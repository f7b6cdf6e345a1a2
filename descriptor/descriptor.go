// Package descriptor implements the compact binary schema-descriptor
// format of spec.md §4.C: a 5-byte header followed by one variable-length
// record per field. Load is deliberately tolerant of truncation (it
// returns the schema built so far rather than failing outright);
// Dump is its exact inverse for every schema Load can produce.
package descriptor

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tinygram/payloadschema/errs"
	"github.com/tinygram/payloadschema/schema"
)

const (
	magicP = 'P'
	magicS = 'S'

	headerLen = 5

	flagLittleEndian = 1 << 0

	addendMarker = 0xA0
	consumeByte  = 0x01
)

// type-class codes occupying bits 6..4 of the per-field type byte. Class
// 7 is overloaded: combined with the "has lookup table" flag bit it also
// carries Skip, since spec.md §4.C's class list runs one value past what
// three bits can hold (an inconsistency spec.md §9 calls out explicitly).
// See DESIGN.md's "Type-class 8 collision" Open Question for the chosen
// resolution.
const (
	classUnsigned = 0
	classSigned   = 1
	classFloat    = 2
	classBytes    = 3
	classBool     = 4
	classEnum     = 5
	classBitfield = 6
	classMatch    = 7 // also Skip, when the lookup-flag bit is set
)

var log = logrus.WithField("component", "descriptor")

// Load parses a binary schema descriptor per spec.md §4.C. It never fails
// the whole load because of a truncated trailing field record: it stops
// at the first field that would run past the buffer and returns the
// schema built from the fields read so far, as long as the 5-byte header
// itself is valid.
func Load(data []byte) (*schema.Schema, error) {
	if len(data) < headerLen {
		return nil, errors.Wrap(errs.ErrParse, "descriptor: truncated header")
	}
	if data[0] != magicP || data[1] != magicS {
		return nil, errors.Wrap(errs.ErrParse, "descriptor: bad magic")
	}

	version := data[2]
	flags := data[3]
	fieldCount := int(data[4])

	s := &schema.Schema{
		Version: version,
		Endian:  schema.Big,
	}
	if flags&flagLittleEndian != 0 {
		s.Endian = schema.Little
	}

	pos := headerLen
	for i := 0; i < fieldCount; i++ {
		field, next, ok := parseField(data, pos)
		if !ok {
			log.WithFields(logrus.Fields{
				"fields_parsed": i,
				"fields_wanted": fieldCount,
			}).Debug("descriptor: stopping at truncated field record")
			break
		}
		s.Fields = append(s.Fields, field)
		pos = next
	}

	return s, nil
}

// parseField parses one field record starting at pos, returning the
// field, the position just past it, and whether the record fit within
// data at all.
func parseField(data []byte, pos int) (schema.Field, int, bool) {
	if pos >= len(data) {
		return schema.Field{}, pos, false
	}

	typeByte := data[pos]
	pos++

	hasLookup := typeByte&0x80 != 0
	class := (typeByte >> 4) & 0x07
	size := int(typeByte & 0x0F)

	if pos >= len(data) {
		return schema.Field{}, pos, false
	}
	multByte := data[pos]
	pos++

	if pos+2 > len(data) {
		return schema.Field{}, pos, false
	}
	id := binary.LittleEndian.Uint16(data[pos : pos+2])
	pos += 2

	field := schema.Field{
		Name: FieldNameForID(id),
		Size: size,
	}

	switch class {
	case classUnsigned:
		field.Type = schema.TypeUint
	case classSigned:
		field.Type = schema.TypeInt
	case classFloat:
		field.Type = schema.TypeFloat
	case classBytes:
		field.Type = schema.TypeBytes
	case classBool:
		field.Type = schema.TypeBool
	case classEnum:
		field.Type = schema.TypeEnum
	case classBitfield:
		field.Type = schema.TypeBitfield
	case classMatch:
		if hasLookup {
			field.Type = schema.TypeSkip
			hasLookup = false // skip never actually carries a lookup block
		} else {
			field.Type = schema.TypeMatch
		}
	default:
		return schema.Field{}, pos, false
	}

	applyMultiplier(&field, multByte)

	if field.Type == schema.TypeBitfield {
		if pos >= len(data) {
			return schema.Field{}, pos, false
		}
		extra := data[pos]
		pos++
		field.BitStart = int(extra >> 4)
		field.BitWidth = int(extra & 0x0F)

		if pos < len(data) && data[pos] == consumeByte {
			field.Consume = true
			pos++
		}
	}

	if pos < len(data) && data[pos] == addendMarker {
		pos++
		if pos+2 > len(data) {
			return schema.Field{}, pos, false
		}
		raw := int16(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
		field.HasAdd = true
		field.Add = float64(raw) / 100.0
	}

	if hasLookup {
		if pos >= len(data) {
			return schema.Field{}, pos, false
		}
		count := int(data[pos])
		pos++

		field.Lookup = make(map[int64]string, count)
		for i := 0; i < count; i++ {
			if pos+2 > len(data) {
				return schema.Field{}, pos, false
			}
			key := data[pos]
			strLen := int(data[pos+1])
			pos += 2

			if pos+strLen > len(data) {
				return schema.Field{}, pos, false
			}
			name := string(data[pos : pos+strLen])
			pos += strLen

			field.Lookup[int64(key)] = name
			field.LookupOrder = append(field.LookupOrder, int64(key))
		}
	}

	return field, pos, true
}

func applyMultiplier(field *schema.Field, b byte) {
	switch b {
	case 0x00:
		return
	case 0x81:
		field.HasMult = true
		field.Mult = 0.5
	case 0x82:
		field.HasMult = true
		field.Mult = 0.25
	case 0x84:
		field.HasMult = true
		field.Mult = 0.0625
	default:
		exp := int(int8(b))
		field.HasMult = true
		field.Mult = pow10(exp)
	}
}

func pow10(exp int) float64 {
	v := 1.0
	if exp >= 0 {
		for i := 0; i < exp; i++ {
			v *= 10
		}
		return v
	}
	for i := 0; i < -exp; i++ {
		v /= 10
	}
	return v
}
