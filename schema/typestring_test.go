package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeStringBaseTypes(t *testing.T) {
	cases := map[string]FieldType{
		"u8": TypeUint, "u16": TypeUint, "u64": TypeUint,
		"s8": TypeInt, "i16": TypeInt, "int32": TypeInt,
		"f16": TypeFloat, "f32": TypeFloat, "f64": TypeFloat,
		"bool": TypeBool, "skip": TypeSkip,
		"ascii": TypeASCII, "string": TypeASCII,
		"hex": TypeHex, "base64": TypeBase64, "bytes": TypeBytes,
		"enum": TypeEnum, "match": TypeMatch,
		"udec": TypeUDec, "sdec": TypeSDec,
	}

	for s, want := range cases {
		pt, err := ParseTypeString(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, pt.Type, s)
	}
}

func TestParseTypeStringBracketRange(t *testing.T) {
	pt, err := ParseTypeString("u8[0:3]")
	require.NoError(t, err)
	assert.True(t, pt.IsBitfield)
	assert.Equal(t, 0, pt.BitStart)
	assert.Equal(t, 4, pt.BitWidth)
}

func TestParseTypeStringBracketWidth(t *testing.T) {
	pt, err := ParseTypeString("u8[4+:4]")
	require.NoError(t, err)
	assert.Equal(t, 4, pt.BitStart)
	assert.Equal(t, 4, pt.BitWidth)
}

func TestParseTypeStringAngle(t *testing.T) {
	pt, err := ParseTypeString("bits<2,3>")
	require.NoError(t, err)
	assert.Equal(t, 2, pt.BitStart)
	assert.Equal(t, 3, pt.BitWidth)
}

func TestParseTypeStringAt(t *testing.T) {
	pt, err := ParseTypeString("bits:3@2")
	require.NoError(t, err)
	assert.Equal(t, 2, pt.BitStart)
	assert.Equal(t, 3, pt.BitWidth)
}

func TestParseTypeStringSequential(t *testing.T) {
	pt, err := ParseTypeString("u8:4")
	require.NoError(t, err)
	assert.Equal(t, SequentialBitStart, pt.BitStart)
	assert.Equal(t, 4, pt.BitWidth)
}

func TestParseTypeStringRejectsMultiByte(t *testing.T) {
	_, err := ParseTypeString("bits<6,4>")
	assert.ErrorIs(t, err, ErrMultiByteBitfield)
}

func TestParseTypeStringRejectsGarbage(t *testing.T) {
	_, err := ParseTypeString("not-a-type")
	assert.ErrorIs(t, err, ErrBadTypeString)
}
