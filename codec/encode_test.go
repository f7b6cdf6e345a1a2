package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinygram/payloadschema/errs"
	"github.com/tinygram/payloadschema/schema"
)

func TestEncodeEnvSensorRoundTrip(t *testing.T) {
	s := buildEnvSensor(t)
	e := NewEncoder(s)

	result := e.Encode(Input{
		"temperature": FloatValue(-1.0),
		"humidity":    FloatValue(100.0),
		"battery_pct": UintValue(0x55),
	})
	require.NoError(t, result.Err)
	assert.Equal(t, []byte{0xFF, 0x9C, 0xC8, 0x55}, result.Bytes)

	decoded := NewDecoder(s).Decode(result.Bytes)
	require.NoError(t, decoded.Err)
	assert.InDelta(t, -1.0, decoded.Float("temperature", 0), 1e-9)
}

func TestEncodeMissingInputReportsError(t *testing.T) {
	s := buildEnvSensor(t)
	e := NewEncoder(s)

	result := e.Encode(Input{"temperature": FloatValue(-1.0)})
	assert.Error(t, result.Err)
}

func TestEncodeBitfieldPacksSingleByte(t *testing.T) {
	s, err := schema.New("status").
		AddField("alarm", schema.TypeBitfield).Bits(7, 1, false).End().
		AddField("mode", schema.TypeBitfield).Bits(4, 3, false).End().
		AddField("level", schema.TypeBitfield).Bits(0, 4, true).End().
		Build()
	require.NoError(t, err)

	e := NewEncoder(s)
	result := e.Encode(Input{
		"alarm": UintValue(1),
		"mode":  UintValue(3),
		"level": UintValue(5),
	})
	require.NoError(t, result.Err)
	assert.Equal(t, []byte{0b1_011_0101}, result.Bytes)
}

// TestEncodeEnumReportsUnsupported exercises spec.md §4.E's explicit
// carve-out: "Types the encoder does not support (notably enum, hex,
// ascii, bytes, base64, match) must signal Unsupported." The decoder
// reads enum fields fine (see TestDecodeEnumLookupWithUnknownFallback);
// only the encoder direction refuses them.
func TestEncodeEnumReportsUnsupported(t *testing.T) {
	s, err := schema.New("enum_test").
		AddField("sensor_type", schema.TypeEnum).Size(1).
		Lookup([]int64{3, 8}, map[int64]string{3: "door_window", 8: "water"}).End().
		Build()
	require.NoError(t, err)

	e := NewEncoder(s)
	result := e.Encode(Input{"sensor_type": StringValue("water")})
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, errs.ErrUnsupported)
}

// TestEncodeMatchReportsUnsupported exercises the same §4.E carve-out
// for match fields: the encoder never resolves a case or recurses into
// one, it signals Unsupported immediately.
func TestEncodeMatchReportsUnsupported(t *testing.T) {
	s, err := schema.New("event").
		AddField("event_type", schema.TypeUint).Size(1).Var("event_type").End().
		AddField("_dispatch", schema.TypeMatch).
		Match("event_type",
			schema.SingleCase(1, 2, 1),
			schema.SingleCase(2, 3, 1),
			schema.DefaultCase(0, 0),
		).End().
		AddField("door_id", schema.TypeUint).Size(1).End().
		AddField("temp_reading", schema.TypeInt).Size(2).Div(100).End().
		Build()
	require.NoError(t, err)

	e := NewEncoder(s)
	result := e.Encode(Input{
		"event_type": UintValue(1),
		"door_id":    UintValue(7),
	})
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, errs.ErrUnsupported)
}

func TestEncodeSignedNibbleDecimal(t *testing.T) {
	s, err := schema.New("nibble").
		AddField("delta", schema.TypeSDec).End().
		Build()
	require.NoError(t, err)

	e := NewEncoder(s)
	result := e.Encode(Input{"delta": FloatValue(-1.5)})
	require.NoError(t, result.Err)
	assert.Equal(t, []byte{0xE5}, result.Bytes)
}

func TestEncodeNibbleDecimalOverflowRejected(t *testing.T) {
	s, err := schema.New("nibble").
		AddField("delta", schema.TypeSDec).End().
		Build()
	require.NoError(t, err)

	e := NewEncoder(s)
	result := e.Encode(Input{"delta": FloatValue(42.0)})
	assert.Error(t, result.Err)
}
