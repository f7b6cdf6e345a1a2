package descriptor

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/tinygram/payloadschema/errs"
	"github.com/tinygram/payloadschema/schema"
)

// Dump serializes s back into the binary descriptor format of spec.md
// §4.C. It is the inverse of Load: Dump(Load(d)) == d byte-for-byte for
// every complete descriptor d (spec.md §8's descriptor round-trip
// property). For a truncated descriptor that Load cut short, Dump writes
// only the fields Load parsed, with a matching field count.
//
// Dump only supports the field types the binary descriptor's type-class
// byte can represent (unsigned/signed/float/bytes/bool/enum/bitfield/
// match/skip). ASCII, hex, base64, and nibble-decimal fields have no
// wire-format slot in spec.md §4.C and cause errs.ErrUnsupported.
func Dump(s *schema.Schema) ([]byte, error) {
	if len(s.Fields) > 0xFF {
		return nil, errors.Wrap(errs.ErrOverflow, "descriptor: too many fields for a one-byte count")
	}

	out := make([]byte, headerLen, headerLen+len(s.Fields)*8)
	out[0] = magicP
	out[1] = magicS
	out[2] = s.Version
	var flags byte
	if s.Endian == schema.Little {
		flags |= flagLittleEndian
	}
	out[3] = flags
	out[4] = byte(len(s.Fields))

	for i := range s.Fields {
		record, err := dumpField(&s.Fields[i])
		if err != nil {
			return nil, errors.Wrapf(err, "descriptor: field %q", s.Fields[i].Name)
		}
		out = append(out, record...)
	}

	return out, nil
}

func dumpField(f *schema.Field) ([]byte, error) {
	var class byte
	hasLookup := len(f.Lookup) > 0

	switch f.Type {
	case schema.TypeUint:
		class = classUnsigned
	case schema.TypeInt:
		class = classSigned
	case schema.TypeFloat:
		class = classFloat
	case schema.TypeBytes:
		class = classBytes
	case schema.TypeBool:
		class = classBool
	case schema.TypeEnum:
		class = classEnum
	case schema.TypeBitfield:
		class = classBitfield
	case schema.TypeMatch:
		class = classMatch
	case schema.TypeSkip:
		class = classMatch
		hasLookup = true // the skip/match discriminator, see descriptor.go
	default:
		return nil, errors.Wrapf(errs.ErrUnsupported, "type %s has no binary descriptor encoding", f.Type)
	}

	size := f.Size
	if f.Type == schema.TypeMatch {
		size = 0
	}
	if size < 0 || size > 0x0F {
		return nil, errors.Wrapf(errs.ErrOverflow, "size %d does not fit in 4 bits", size)
	}

	var typeByte byte
	if hasLookup {
		typeByte |= 0x80
	}
	typeByte |= (class & 0x07) << 4
	typeByte |= byte(size) & 0x0F

	multByte, err := multiplierByte(f)
	if err != nil {
		return nil, err
	}

	id, ok := IDForFieldName(f.Name)
	if !ok {
		return nil, errors.Wrapf(errs.ErrUnsupported, "name %q has no numeric field identifier", f.Name)
	}

	out := []byte{typeByte, multByte, 0, 0}
	binary.LittleEndian.PutUint16(out[2:4], id)

	if f.Type == schema.TypeBitfield {
		extra := byte(f.BitStart<<4) | byte(f.BitWidth&0x0F)
		out = append(out, extra)
		if f.Consume {
			out = append(out, consumeByte)
		}
	}

	if f.HasAdd {
		raw := int16(math.Round(f.Add * 100))
		out = append(out, addendMarker, 0, 0)
		binary.LittleEndian.PutUint16(out[len(out)-2:], uint16(raw))
	}

	if f.Type != schema.TypeSkip && len(f.Lookup) > 0 {
		if len(f.Lookup) > schema.MaxLookupEntries {
			return nil, errors.Wrapf(errs.ErrOverflow, "lookup table has %d entries", len(f.Lookup))
		}
		out = append(out, byte(len(f.LookupOrder)))
		for _, key := range f.LookupOrder {
			name := f.Lookup[key]
			if len(name) > 0xFF {
				return nil, errors.Wrap(errs.ErrOverflow, "lookup entry string too long")
			}
			out = append(out, byte(key), byte(len(name)))
			out = append(out, name...)
		}
	}

	return out, nil
}

func multiplierByte(f *schema.Field) (byte, error) {
	if !f.HasMult {
		return 0x00, nil
	}

	switch f.Mult {
	case 1.0:
		return 0x00, nil
	case 0.5:
		return 0x81, nil
	case 0.25:
		return 0x82, nil
	case 0.0625:
		return 0x84, nil
	}

	if exp, ok := exactPowerOfTen(f.Mult); ok {
		return byte(int8(exp)), nil
	}

	return 0, errors.Wrapf(errs.ErrUnsupported, "multiplier %v is not representable in the descriptor format", f.Mult)
}

// exactPowerOfTen reports whether v == 10^n for some integer n in
// [-127, 127], returning n.
func exactPowerOfTen(v float64) (int, bool) {
	if v <= 0 {
		return 0, false
	}

	for n := -127; n <= 127; n++ {
		if math.Abs(pow10(n)-v) < v*1e-9+1e-12 {
			return n, true
		}
	}
	return 0, false
}
