// Package codec implements the field-decoding state machine (component D)
// and its inverse encoder (component E) of spec.md §4: bitfield packing,
// modifier arithmetic, enum lookup, and variable-driven match branching.
package codec

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/tinygram/payloadschema/bitio"
	"github.com/tinygram/payloadschema/errs"
	"github.com/tinygram/payloadschema/schema"
)

// Decoder consumes bytes against an immutable schema. A Decoder holds
// only a schema reference - it carries no per-call state, so the same
// Decoder may be used concurrently by multiple goroutines, per spec.md §5.
type Decoder struct {
	schema *schema.Schema
}

// NewDecoder builds a Decoder bound to s.
func NewDecoder(s *schema.Schema) *Decoder {
	return &Decoder{schema: s}
}

// Decode walks the schema's field list against payload, per spec.md §4.D.
// It never panics on malformed input: failures are reported through the
// returned DecodeResult's Err.
func (d *Decoder) Decode(payload []byte) *DecodeResult {
	result := &DecodeResult{}
	e := newEnv(len(d.schema.Fields))

	pos, err := d.decodeRange(0, len(d.schema.Fields), payload, 0, e, result)
	result.BytesConsumed = pos
	result.Err = err
	return result
}

// decodeRange decodes schema fields [start, end) in order, recursing with
// the same cursor and variable environment for match-selected sub-ranges,
// per spec.md §9 "match as indexed slice".
func (d *Decoder) decodeRange(start, end int, payload []byte, pos int, e *env, result *DecodeResult) (int, error) {
	for i := start; i < end; i++ {
		f := &d.schema.Fields[i]

		if f.Type == schema.TypeMatch {
			newPos, err := d.decodeMatch(f, payload, pos, e, result)
			if err != nil {
				return newPos, err
			}
			pos = newPos

			// Fields after the match that belong to its cases are decoded
			// only through the selected case, never again by this loop.
			for _, c := range f.Cases {
				if last := c.FieldStart + c.FieldCount - 1; last > i {
					i = last
				}
			}
			continue
		}

		newPos, value, raw, hasRaw, err := d.decodeSingle(f, payload, pos)
		if err != nil {
			return pos, err
		}
		pos = newPos

		if hasRaw && f.Var != "" {
			e.set(f.Var, raw)
		}

		if f.Type != schema.TypeSkip && f.Name != "" && !f.Internal() {
			result.Fields = append(result.Fields, DecodedField{Name: f.Name, Type: f.Type, Value: value})
		}
	}

	return pos, nil
}

func (d *Decoder) decodeMatch(f *schema.Field, payload []byte, pos int, e *env, result *DecodeResult) (int, error) {
	v, ok := e.get(f.MatchVar)
	if !ok {
		return pos, nil
	}

	for _, c := range f.Cases {
		if c.Matches(v) {
			return d.decodeRange(c.FieldStart, c.FieldStart+c.FieldCount, payload, pos, e, result)
		}
	}

	return pos, nil
}

// decodeSingle decodes one non-match field. It returns the advanced
// cursor, the decoded value, the pre-modifier raw integer (when the type
// produces one) and whether that raw integer is meaningful.
func (d *Decoder) decodeSingle(f *schema.Field, payload []byte, pos int) (int, Value, int64, bool, error) {
	big := f.EffectiveEndian(d.schema.Endian) == schema.Big

	switch f.Type {
	case schema.TypeUint:
		raw, err := bitio.ReadUint(payload, pos, f.Size, big)
		if err != nil {
			return pos, Value{}, 0, false, underrun(err)
		}
		return pos + f.Size, numericResult(f, int64(raw), true), int64(raw), true, nil

	case schema.TypeInt:
		raw, err := bitio.ReadInt(payload, pos, f.Size, big)
		if err != nil {
			return pos, Value{}, 0, false, underrun(err)
		}
		return pos + f.Size, numericResult(f, raw, false), raw, true, nil

	case schema.TypeFloat:
		v, err := readFloat(payload, pos, f.Size, big)
		if err != nil {
			return pos, Value{}, 0, false, underrun(err)
		}
		return pos + f.Size, applyFloatModifiers(f, v), 0, false, nil

	case schema.TypeBool:
		if pos >= len(payload) {
			return pos, Value{}, 0, false, underrun(bitio.ErrShortBuffer)
		}
		bit := bitio.ExtractBits(payload[pos], f.BitStart, 1)
		newPos := pos
		if f.Consume {
			newPos++
		}
		return newPos, boolResult(f, bit), int64(bit), true, nil

	case schema.TypeBitfield:
		if pos >= len(payload) {
			return pos, Value{}, 0, false, underrun(bitio.ErrShortBuffer)
		}
		bits := bitio.ExtractBits(payload[pos], f.BitStart, f.BitWidth)
		newPos := pos
		if f.Consume {
			newPos++
		}
		return newPos, numericResult(f, int64(bits), true), int64(bits), true, nil

	case schema.TypeSkip:
		if pos+f.Size > len(payload) {
			return pos, Value{}, 0, false, underrun(bitio.ErrShortBuffer)
		}
		return pos + f.Size, Value{}, 0, false, nil

	case schema.TypeASCII:
		raw, err := readBytes(payload, pos, f.Size)
		if err != nil {
			return pos, Value{}, 0, false, err
		}
		return pos + f.Size, StringValue(strings.TrimRight(string(raw), "\x00")), 0, false, nil

	case schema.TypeHex:
		raw, err := readBytes(payload, pos, f.Size)
		if err != nil {
			return pos, Value{}, 0, false, err
		}
		return pos + f.Size, StringValue(hex.EncodeToString(raw)), 0, false, nil

	case schema.TypeBase64:
		raw, err := readBytes(payload, pos, f.Size)
		if err != nil {
			return pos, Value{}, 0, false, err
		}
		return pos + f.Size, StringValue(base64.StdEncoding.EncodeToString(raw)), 0, false, nil

	case schema.TypeBytes:
		raw, err := readBytes(payload, pos, f.Size)
		if err != nil {
			return pos, Value{}, 0, false, err
		}
		return pos + f.Size, BytesValue(raw), 0, false, nil

	case schema.TypeEnum:
		raw, err := bitio.ReadUint(payload, pos, f.Size, big)
		if err != nil {
			return pos, Value{}, 0, false, underrun(err)
		}
		return pos + f.Size, numericResult(f, int64(raw), true), int64(raw), true, nil

	case schema.TypeUDec:
		if pos >= len(payload) {
			return pos, Value{}, 0, false, underrun(bitio.ErrShortBuffer)
		}
		b := payload[pos]
		return pos + 1, nibbleDecimalResult(f, b, false), int64(b), true, nil

	case schema.TypeSDec:
		if pos >= len(payload) {
			return pos, Value{}, 0, false, underrun(bitio.ErrShortBuffer)
		}
		b := payload[pos]
		return pos + 1, nibbleDecimalResult(f, b, true), int64(b), true, nil

	default:
		return pos, Value{}, 0, false, errors.Wrapf(errs.ErrType, "field %q: unhandled type %s", f.Name, f.Type)
	}
}

func underrun(err error) error {
	return errors.Wrap(errs.ErrBufferUnderrun, err.Error())
}

func readBytes(payload []byte, pos, size int) ([]byte, error) {
	if pos+size > len(payload) {
		return nil, underrun(bitio.ErrShortBuffer)
	}
	out := make([]byte, size)
	copy(out, payload[pos:pos+size])
	return out, nil
}

func readFloat(payload []byte, pos, size int, big bool) (float64, error) {
	switch size {
	case 2:
		return bitio.ReadFloat16(payload, pos, big)
	case 4:
		return bitio.ReadFloat32(payload, pos, big)
	case 8:
		return bitio.ReadFloat64(payload, pos, big)
	default:
		return 0, errors.Errorf("codec: unsupported float width %d", size)
	}
}

// numericResult applies the lookup table (and enum unknown-value
// fallback), then the modifier chain, per spec.md §4.D step 2's final two
// bullets.
func numericResult(f *schema.Field, raw int64, unsigned bool) Value {
	if len(f.Lookup) > 0 {
		if s, ok := f.Lookup[raw]; ok {
			return StringValue(s)
		}
		if f.Type == schema.TypeEnum {
			return StringValue(fmt.Sprintf("unknown(%d)", raw))
		}
	}

	if f.HasMult || f.HasDiv || f.HasAdd {
		return FloatValue(applyModifiers(f, float64(raw)))
	}

	if unsigned {
		return UintValue(uint64(raw))
	}
	return IntValue(raw)
}

func boolResult(f *schema.Field, bit byte) Value {
	if f.HasMult || f.HasDiv || f.HasAdd {
		return FloatValue(applyModifiers(f, float64(bit)))
	}
	return BoolValue(bit != 0)
}

func applyFloatModifiers(f *schema.Field, v float64) Value {
	if f.HasMult || f.HasDiv || f.HasAdd {
		return FloatValue(applyModifiers(f, v))
	}
	return FloatValue(v)
}

func applyModifiers(f *schema.Field, v float64) float64 {
	if f.HasMult {
		v *= f.Mult
	}
	if f.HasDiv {
		v /= f.Div
	}
	if f.HasAdd {
		v += f.Add
	}
	return v
}

// nibbleDecimalResult decodes a one-byte `whole.tenths` value: the upper
// nibble is the whole-number digit (sign-extended to [-8,+7] for the
// signed variant), the lower nibble the tenths digit.
func nibbleDecimalResult(f *schema.Field, b byte, signed bool) Value {
	whole := (b >> 4) & 0x0F
	tenths := b & 0x0F

	var wholeVal float64
	if signed {
		wholeVal = float64(int8(whole<<4) >> 4)
	} else {
		wholeVal = float64(whole)
	}

	decimal := wholeVal + 0.1*float64(tenths)
	if f.HasMult || f.HasDiv || f.HasAdd {
		return FloatValue(applyModifiers(f, decimal))
	}
	return FloatValue(decimal)
}
