// Package bitio provides the fixed-width integer, float, and bit-level
// codecs the schema decoder and encoder build on. Every function here is
// pure: it takes a buffer and a position and never retains state.
package bitio

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// ErrShortBuffer is returned when a read or write would run past the end
// of the supplied buffer.
var ErrShortBuffer = errors.New("bitio: short buffer")

// Big selects big-endian byte order; it is passed explicitly rather than
// relying on a package-level default so callers can mix endianness per
// field, as the schema model requires.
const (
	Big    = true
	Little = false
)

func order(big bool) binary.ByteOrder {
	if big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ReadUint reads a width-byte (1, 2, 3, 4, or 8) unsigned integer at pos.
func ReadUint(buf []byte, pos int, width int, big bool) (uint64, error) {
	if pos < 0 || width < 0 || pos+width > len(buf) {
		return 0, errors.WithStack(ErrShortBuffer)
	}

	switch width {
	case 1:
		return uint64(buf[pos]), nil
	case 2:
		return uint64(order(big).Uint16(buf[pos : pos+2])), nil
	case 3:
		return readUint24(buf[pos:pos+3], big), nil
	case 4:
		return uint64(order(big).Uint32(buf[pos : pos+4])), nil
	case 8:
		return order(big).Uint64(buf[pos : pos+8]), nil
	default:
		return 0, errors.Errorf("bitio: unsupported unsigned width %d", width)
	}
}

// ReadInt reads a width-byte two's-complement signed integer at pos,
// sign-extending 3-byte values from bit 23.
func ReadInt(buf []byte, pos int, width int, big bool) (int64, error) {
	raw, err := ReadUint(buf, pos, width, big)
	if err != nil {
		return 0, err
	}

	switch width {
	case 1:
		return int64(int8(raw)), nil
	case 2:
		return int64(int16(raw)), nil
	case 3:
		if raw&0x800000 != 0 {
			raw |= 0xFFFFFFFFFF000000
		}
		return int64(raw), nil
	case 4:
		return int64(int32(raw)), nil
	case 8:
		return int64(raw), nil
	default:
		return 0, errors.Errorf("bitio: unsupported signed width %d", width)
	}
}

func readUint24(b []byte, big bool) uint64 {
	if big {
		return uint64(b[0])<<16 | uint64(b[1])<<8 | uint64(b[2])
	}
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16
}

// ReadFloat32 reads an IEEE 754 single-precision value at pos.
func ReadFloat32(buf []byte, pos int, big bool) (float64, error) {
	raw, err := ReadUint(buf, pos, 4, big)
	if err != nil {
		return 0, err
	}
	return float64(math.Float32frombits(uint32(raw))), nil
}

// ReadFloat64 reads an IEEE 754 double-precision value at pos.
func ReadFloat64(buf []byte, pos int, big bool) (float64, error) {
	raw, err := ReadUint(buf, pos, 8, big)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(raw), nil
}

// ReadFloat16 reads an IEEE 754 binary16 (half-precision) value at pos,
// reconstructed from sign/exponent/mantissa rather than a hardware
// half-float instruction, so it runs identically on targets without one.
func ReadFloat16(buf []byte, pos int, big bool) (float64, error) {
	raw, err := ReadUint(buf, pos, 2, big)
	if err != nil {
		return 0, err
	}
	return Float16ToFloat64(uint16(raw)), nil
}

// Float16ToFloat64 reconstructs the IEEE 754 binary16 bit pattern bits
// into a float64, handling zero, subnormals, infinities, and NaN.
func Float16ToFloat64(bits uint16) float64 {
	sign := uint64(bits>>15) & 0x1
	exp := uint32(bits>>10) & 0x1F
	frac := uint64(bits) & 0x3FF

	var signBit uint64 = sign << 63

	switch {
	case exp == 0 && frac == 0:
		// zero (signed)
		return math.Float64frombits(signBit)
	case exp == 0:
		// subnormal: value = frac/1024 * 2^-14
		value := float64(frac) / 1024.0 * math.Pow(2, -14)
		if sign == 1 {
			value = -value
		}
		return value
	case exp == 0x1F && frac == 0:
		if sign == 1 {
			return math.Inf(-1)
		}
		return math.Inf(1)
	case exp == 0x1F:
		return math.NaN()
	default:
		// normalized: value = 1.frac * 2^(exp-15)
		mant := 1.0 + float64(frac)/1024.0
		value := mant * math.Pow(2, float64(exp)-15)
		if sign == 1 {
			value = -value
		}
		return value
	}
}

// Float64ToFloat16 converts v to an IEEE 754 binary16 bit pattern,
// truncating mantissa bits beyond the ten binary16 keeps. It is the exact
// inverse of Float16ToFloat64 for zero, infinities, NaN, and normal
// binary16 values; magnitudes below the normal range flush to signed zero.
func Float64ToFloat16(v float64) uint16 {
	bits := math.Float64bits(v)
	sign := uint16((bits >> 63) & 0x1)

	switch {
	case math.IsNaN(v):
		return (sign << 15) | 0x7E00
	case math.IsInf(v, 1):
		return 0x7C00
	case math.IsInf(v, -1):
		return 0xFC00
	case v == 0:
		return sign << 15
	}

	absExp := uint32((bits>>52)&0x7FF) - 1023
	frac64 := bits & ((1 << 52) - 1)

	halfExp := int32(absExp) + 15
	if halfExp >= 0x1F {
		// overflow to infinity
		return (sign << 15) | 0x7C00
	}
	if halfExp <= 0 {
		// flush to zero (subnormal precision not reconstructed here)
		return sign << 15
	}

	frac := uint16(frac64 >> 42)
	return (sign << 15) | (uint16(halfExp) << 10) | frac
}

// WriteUint writes a width-byte unsigned integer into buf at pos.
func WriteUint(buf []byte, pos int, width int, value uint64, big bool) error {
	if pos < 0 || width < 0 || pos+width > len(buf) {
		return errors.WithStack(ErrShortBuffer)
	}

	switch width {
	case 1:
		buf[pos] = byte(value)
	case 2:
		order(big).PutUint16(buf[pos:pos+2], uint16(value))
	case 3:
		writeUint24(buf[pos:pos+3], uint32(value), big)
	case 4:
		order(big).PutUint32(buf[pos:pos+4], uint32(value))
	case 8:
		order(big).PutUint64(buf[pos:pos+8], value)
	default:
		return errors.Errorf("bitio: unsupported unsigned width %d", width)
	}
	return nil
}

func writeUint24(b []byte, v uint32, big bool) {
	if big {
		b[0] = byte(v >> 16)
		b[1] = byte(v >> 8)
		b[2] = byte(v)
		return
	}
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// WriteInt writes a width-byte two's-complement signed integer into buf.
func WriteInt(buf []byte, pos int, width int, value int64, big bool) error {
	return WriteUint(buf, pos, width, uint64(value), big)
}

// WriteFloat32 writes v as an IEEE 754 single-precision value at pos.
func WriteFloat32(buf []byte, pos int, v float64, big bool) error {
	return WriteUint(buf, pos, 4, uint64(math.Float32bits(float32(v))), big)
}

// WriteFloat64 writes v as an IEEE 754 double-precision value at pos.
func WriteFloat64(buf []byte, pos int, v float64, big bool) error {
	return WriteUint(buf, pos, 8, math.Float64bits(v), big)
}

// WriteFloat16 writes v as an IEEE 754 binary16 value at pos.
func WriteFloat16(buf []byte, pos int, v float64, big bool) error {
	return WriteUint(buf, pos, 2, uint64(Float64ToFloat16(v)), big)
}

// ExtractBits returns the width consecutive bits of b starting at bit
// start, where bit 0 is the least-significant bit.
func ExtractBits(b byte, start int, width int) byte {
	return (b >> uint(start)) & byte((1<<uint(width))-1)
}

// SetBits composes value (already masked or not) into the width bits of
// b starting at bit start, clearing the bits it writes first.
func SetBits(b byte, start int, width int, value byte) byte {
	mask := byte((1<<uint(width))-1) << uint(start)
	b &^= mask
	b |= (value << uint(start)) & mask
	return b
}
