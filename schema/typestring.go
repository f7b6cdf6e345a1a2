package schema

import (
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// ErrBadTypeString is returned when a type expression doesn't match the
// grammar of spec.md §4.B.
var ErrBadTypeString = errors.New("schema: unrecognized type string")

// ErrMultiByteBitfield is returned when a bit-syntax type expression
// would need bits spanning more than one byte, which spec.md §9 names an
// explicit non-goal of this interpreter core.
var ErrMultiByteBitfield = errors.New("schema: bitfield spans more than one byte")

// SequentialBitStart is the sentinel bit-start value (255) meaning "pick
// up where the previous sequential bitfield in this byte left off", per
// spec.md §4.B's `uN:w` syntax. It is a builder-time convenience only:
// ParseTypeString returns it in ParsedType.BitStart, and Builder.AddTypeField
// resolves it, so a stored Field.BitStart never carries this value.
const SequentialBitStart = 255

// ParsedType is the result of parsing a type-string expression: the base
// type tag plus, for bit-syntax expressions, the bit offset and width.
type ParsedType struct {
	Type       FieldType
	Size       int
	IsBitfield bool
	BitStart   int
	BitWidth   int
}

var baseTypes = map[string]struct {
	t    FieldType
	size int
}{
	"u8": {TypeUint, 1}, "uint8": {TypeUint, 1},
	"u16": {TypeUint, 2}, "uint16": {TypeUint, 2},
	"u32": {TypeUint, 4}, "uint32": {TypeUint, 4},
	"u64": {TypeUint, 8}, "uint64": {TypeUint, 8},

	"s8": {TypeInt, 1}, "i8": {TypeInt, 1}, "int8": {TypeInt, 1},
	"s16": {TypeInt, 2}, "i16": {TypeInt, 2}, "int16": {TypeInt, 2},
	"s32": {TypeInt, 4}, "i32": {TypeInt, 4}, "int32": {TypeInt, 4},
	"s64": {TypeInt, 8}, "i64": {TypeInt, 8}, "int64": {TypeInt, 8},

	"f16": {TypeFloat, 2},
	"f32": {TypeFloat, 4},
	"f64": {TypeFloat, 8},

	"bool": {TypeBool, 0},
	"skip": {TypeSkip, 0},

	"ascii":  {TypeASCII, 0},
	"string": {TypeASCII, 0},
	"hex":    {TypeHex, 0},
	"base64": {TypeBase64, 0},
	"bytes":  {TypeBytes, 0},
	"enum":   {TypeEnum, 0},
	"match":  {TypeMatch, 0},
	"udec":   {TypeUDec, 1},
	"sdec":   {TypeSDec, 1},
}

var (
	reBracketRange = regexp.MustCompile(`^u(\d+)\[(\d+):(\d+)\]$`)   // uN[a:b]
	reBracketWidth = regexp.MustCompile(`^u(\d+)\[(\d+)\+:(\d+)\]$`) // uN[a+:w]
	reAngle        = regexp.MustCompile(`^bits<(\d+),(\d+)>$`)       // bits<a,w>
	reAt           = regexp.MustCompile(`^bits:(\d+)@(\d+)$`)        // bits:w@a
	reSequential   = regexp.MustCompile(`^u(\d+):(\d+)$`)            // uN:w
)

// ParseTypeString maps a type expression to (type, bit_start, bit_width)
// per the grammar table in spec.md §4.B.
func ParseTypeString(s string) (ParsedType, error) {
	if base, ok := baseTypes[s]; ok {
		return ParsedType{Type: base.t, Size: base.size}, nil
	}

	if m := reBracketRange.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		if b < a {
			a, b = b, a
		}
		return bitfieldResult(a, b-a+1)
	}

	if m := reBracketWidth.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[2])
		w, _ := strconv.Atoi(m[3])
		return bitfieldResult(a, w)
	}

	if m := reAngle.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[1])
		w, _ := strconv.Atoi(m[2])
		return bitfieldResult(a, w)
	}

	if m := reAt.FindStringSubmatch(s); m != nil {
		w, _ := strconv.Atoi(m[1])
		a, _ := strconv.Atoi(m[2])
		return bitfieldResult(a, w)
	}

	if m := reSequential.FindStringSubmatch(s); m != nil {
		w, _ := strconv.Atoi(m[2])
		return ParsedType{Type: TypeBitfield, IsBitfield: true, BitStart: SequentialBitStart, BitWidth: w}, nil
	}

	return ParsedType{}, errors.Wrapf(ErrBadTypeString, "%q", s)
}

func bitfieldResult(start, width int) (ParsedType, error) {
	if start < 0 || width < 1 || width > 16 {
		return ParsedType{}, errors.Wrapf(ErrBadTypeString, "bit width %d out of range", width)
	}
	if start+width > 8 {
		return ParsedType{}, errors.Wrapf(ErrMultiByteBitfield, "start=%d width=%d", start, width)
	}
	return ParsedType{Type: TypeBitfield, IsBitfield: true, BitStart: start, BitWidth: width}, nil
}
