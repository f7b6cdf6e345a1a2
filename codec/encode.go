package codec

import (
	"math"

	"github.com/pkg/errors"

	"github.com/tinygram/payloadschema/bitio"
	"github.com/tinygram/payloadschema/errs"
	"github.com/tinygram/payloadschema/schema"
)

// Encoder is the inverse of Decoder: it renders a named set of field
// values back into a wire payload against the same schema, per spec.md
// §4.E. Like Decoder it is stateless and safe for concurrent use.
type Encoder struct {
	schema *schema.Schema
}

// NewEncoder builds an Encoder bound to s.
func NewEncoder(s *schema.Schema) *Encoder {
	return &Encoder{schema: s}
}

// Input is the caller-supplied name to Value mapping Encode renders.
// Every field other than skip and internal ('_'-prefixed) fields needs an
// entry; a missing one is reported as errs.ErrMissingInput. Internal
// fields without an entry are written as zero.
type Input map[string]Value

// Encode renders values against the schema's field list, returning the
// bytes written so far alongside any error, per spec.md §4.E "partial
// output on error".
func (e *Encoder) Encode(values Input) *EncodeResult {
	buf := make([]byte, 0, schema.MaxPayload)
	env := newEnv(len(e.schema.Fields))
	ps := &packState{}

	out, err := e.encodeRange(0, len(e.schema.Fields), values, buf, env, ps)
	return &EncodeResult{Bytes: out, Err: err}
}

// packState tracks whether the last byte appended to buf is still open
// for sub-byte bitfield/bool packing - mirroring the decoder's "advance
// the cursor only when Consume is true" rule in reverse.
type packState struct {
	open bool
}

func (e *Encoder) encodeRange(start, end int, values Input, buf []byte, env *env, ps *packState) ([]byte, error) {
	for i := start; i < end; i++ {
		f := &e.schema.Fields[i]

		// Per spec.md §4.E, match is explicitly one of the types the
		// encoder does not implement - it never resolves a case or
		// recurses into one, it just signals Unsupported.
		if f.Type == schema.TypeMatch {
			return buf, errors.Wrapf(errs.ErrUnsupported, "field %q: match fields are not encodable", f.Name)
		}

		newBuf, raw, hasRaw, err := e.encodeSingle(f, values, buf, ps)
		if err != nil {
			return buf, err
		}
		buf = newBuf

		if hasRaw && f.Var != "" {
			env.set(f.Var, raw)
		}
	}

	return buf, nil
}

func (e *Encoder) encodeSingle(f *schema.Field, values Input, buf []byte, ps *packState) ([]byte, int64, bool, error) {
	big := f.EffectiveEndian(e.schema.Endian) == schema.Big

	if f.Type == schema.TypeSkip {
		return append(buf, make([]byte, f.Size)...), 0, false, nil
	}

	// Per spec.md §4.E: "Types the encoder does not support (notably
	// enum, hex, ascii, bytes, base64, match) must signal Unsupported."
	// This is a type-level constraint, independent of whether an input
	// value happens to be present, so it is checked before the missing-
	// input check below. The decoder still reads all of these (§4.D);
	// only the encoder direction is restricted.
	switch f.Type {
	case schema.TypeEnum, schema.TypeASCII, schema.TypeHex, schema.TypeBase64, schema.TypeBytes:
		return buf, 0, false, errors.Wrapf(errs.ErrUnsupported, "field %q: type %s is not encodable", f.Name, f.Type)
	}

	v, ok := values[f.Name]
	if !ok && !f.Internal() {
		return buf, 0, false, errors.Wrapf(errs.ErrMissingInput, "field %q: no input value supplied", f.Name)
	}

	switch f.Type {
	case schema.TypeUint, schema.TypeInt, schema.TypeBitfield:
		raw, err := encodeIntegral(f, v)
		if err != nil {
			return buf, 0, false, err
		}
		return e.writeIntegral(f, raw, big, buf, ps)

	case schema.TypeBool:
		raw := int64(0)
		if v.AsBool() {
			raw = 1
		}
		return e.writeIntegral(f, raw, big, buf, ps)

	case schema.TypeFloat:
		raw := inverseModifiers(f, v.AsFloat())
		out, err := writeFloat(buf, f.Size, raw, big)
		return out, 0, false, err

	case schema.TypeUDec, schema.TypeSDec:
		b, err := encodeNibbleDecimal(f, v.AsFloat(), f.Type == schema.TypeSDec)
		if err != nil {
			return buf, 0, false, err
		}
		return append(buf, b), int64(b), true, nil

	default:
		return buf, 0, false, errors.Wrapf(errs.ErrType, "field %q: unhandled type %s", f.Name, f.Type)
	}
}

// encodeIntegral resolves v to the raw pre-modifier integer that should
// be written for f, reversing the lookup table or modifier chain the
// decoder would have applied.
func encodeIntegral(f *schema.Field, v Value) (int64, error) {
	if len(f.Lookup) > 0 && v.Kind == KindString {
		for raw, name := range f.Lookup {
			if name == v.AsString() {
				return raw, nil
			}
		}
		return 0, errors.Wrapf(errs.ErrType, "field %q: %q is not a known lookup value", f.Name, v.AsString())
	}

	if f.HasMult || f.HasDiv || f.HasAdd {
		return int64(math.Round(inverseModifiers(f, v.AsFloat()))), nil
	}

	if f.Type == schema.TypeInt {
		return v.AsInt(), nil
	}
	return int64(v.AsUint()), nil
}

// inverseModifiers undoes the decode-time `(raw*mult)/div+add` chain:
// raw = ((value - add) * div) / mult.
func inverseModifiers(f *schema.Field, value float64) float64 {
	if f.HasAdd {
		value -= f.Add
	}
	if f.HasDiv {
		value *= f.Div
	}
	if f.HasMult {
		value /= f.Mult
	}
	return value
}

func (e *Encoder) writeIntegral(f *schema.Field, raw int64, big bool, buf []byte, ps *packState) ([]byte, int64, bool, error) {
	switch f.Type {
	case schema.TypeBitfield, schema.TypeBool:
		if !ps.open {
			buf = append(buf, 0)
			ps.open = true
		}
		width := f.BitWidth
		if f.Type == schema.TypeBool {
			// The decoder always reads a bool as one bit.
			width = 1
		}
		buf[len(buf)-1] = bitio.SetBits(buf[len(buf)-1], f.BitStart, width, byte(raw))
		if f.Consume {
			ps.open = false
		}
		return buf, raw, true, nil

	default:
		out := make([]byte, f.Size)
		var err error
		if f.Type == schema.TypeInt {
			err = bitio.WriteInt(out, 0, f.Size, raw, big)
		} else {
			err = bitio.WriteUint(out, 0, f.Size, uint64(raw), big)
		}
		if err != nil {
			return buf, 0, false, err
		}
		return append(buf, out...), raw, true, nil
	}
}

func writeFloat(buf []byte, size int, v float64, big bool) ([]byte, error) {
	out := make([]byte, size)
	var err error
	switch size {
	case 2:
		err = bitio.WriteFloat16(out, 0, v, big)
	case 4:
		err = bitio.WriteFloat32(out, 0, v, big)
	case 8:
		err = bitio.WriteFloat64(out, 0, v, big)
	default:
		err = errors.Errorf("codec: unsupported float width %d", size)
	}
	if err != nil {
		return buf, err
	}
	return append(buf, out...), nil
}

// encodeNibbleDecimal reverses nibbleDecimalResult: it splits value into
// a whole-digit nibble (sign-extended range for the signed variant) and a
// tenths-digit nibble.
func encodeNibbleDecimal(f *schema.Field, value float64, signed bool) (byte, error) {
	raw := inverseModifiers(f, value)

	// whole must be the floor, not the truncation, since tenths is always
	// added as a non-negative digit on top of it (matching the decoder's
	// wholeVal + 0.1*tenths formula for negative values too).
	whole := math.Floor(raw)
	tenths := math.Round((raw - whole) * 10)
	if tenths >= 10 {
		whole++
		tenths = 0
	}

	if signed {
		if whole < -8 || whole > 7 {
			return 0, errors.Wrapf(errs.ErrOverflow, "field %q: whole digit %v out of signed nibble range", f.Name, whole)
		}
	} else if whole < 0 || whole > 15 {
		return 0, errors.Wrapf(errs.ErrOverflow, "field %q: whole digit %v out of unsigned nibble range", f.Name, whole)
	}
	if tenths < 0 || tenths > 9 {
		return 0, errors.Wrapf(errs.ErrOverflow, "field %q: tenths digit %v out of range", f.Name, tenths)
	}

	wholeNibble := byte(int8(whole)) & 0x0F
	return (wholeNibble << 4) | byte(tenths), nil
}
