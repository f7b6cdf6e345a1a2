package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinygram/payloadschema/descriptor"
	"github.com/tinygram/payloadschema/errs"
	"github.com/tinygram/payloadschema/schema"
)

// TestScenario1EnvSensorBigEndian is spec.md §8 scenario 1, verbatim:
// schema, payload, and expected values all match the concrete numbers the
// scenario names.
func TestScenario1EnvSensorBigEndian(t *testing.T) {
	s, err := schema.New("scenario1").
		Endian(schema.Big).
		AddField("temperature", schema.TypeInt).Size(2).Mult(0.01).End().
		AddField("humidity", schema.TypeUint).Size(1).Mult(0.5).End().
		AddField("battery", schema.TypeUint).Size(2).End().
		AddField("status", schema.TypeUint).Size(1).End().
		Build()
	require.NoError(t, err)

	result := NewDecoder(s).Decode([]byte{0x09, 0x29, 0x82, 0x0C, 0xE4, 0x00})
	require.NoError(t, result.Err)
	assert.Equal(t, 6, result.BytesConsumed)

	assert.InDelta(t, 23.45, result.Float("temperature", 0), 1e-9)
	assert.InDelta(t, 65.0, result.Float("humidity", 0), 1e-9)
	assert.Equal(t, int64(3300), result.Int("battery", -1))
	assert.Equal(t, int64(0), result.Int("status", -1))
}

// TestScenario2BitfieldByte is spec.md §8 scenario 2, verbatim.
func TestScenario2BitfieldByte(t *testing.T) {
	s, err := schema.New("scenario2").
		AddField("protocol_version", schema.TypeBitfield).Bits(4, 4, false).End().
		AddField("packet_counter", schema.TypeBitfield).Bits(0, 4, true).End().
		AddField("event_type", schema.TypeEnum).Size(1).
		Lookup([]int64{3, 8}, map[int64]string{3: "door_window", 8: "water"}).End().
		AddField("state", schema.TypeEnum).Size(1).
		Lookup([]int64{0, 1}, map[int64]string{0: "Closed", 1: "Open"}).End().
		Build()
	require.NoError(t, err)

	result := NewDecoder(s).Decode([]byte{0x10, 0x03, 0x01})
	require.NoError(t, result.Err)

	assert.Equal(t, int64(1), result.Int("protocol_version", -1))
	assert.Equal(t, int64(0), result.Int("packet_counter", -1))
	assert.Equal(t, "door_window", result.Str("event_type", ""))
	assert.Equal(t, "Open", result.Str("state", ""))
}

// TestScenario3MatchDispatch is spec.md §8 scenario 3, verbatim: the same
// msg_type byte selects between two differently-shaped tails.
func TestScenario3MatchDispatch(t *testing.T) {
	s, err := schema.New("scenario3").
		Endian(schema.Big).
		AddField("msg_type", schema.TypeUint).Size(1).Var("msg_type").End().
		AddField("_dispatch", schema.TypeMatch).
		Match("msg_type",
			schema.SingleCase(1, 2, 1),
			schema.SingleCase(2, 3, 1),
		).End().
		AddField("temperature", schema.TypeInt).Size(2).Mult(0.01).End().
		AddField("humidity", schema.TypeUint).Size(1).End().
		Build()
	require.NoError(t, err)

	d := NewDecoder(s)

	t.Run("case 1", func(t *testing.T) {
		result := d.Decode([]byte{0x01, 0x09, 0x29})
		require.NoError(t, result.Err)
		assert.Equal(t, int64(1), result.Int("msg_type", -1))
		assert.InDelta(t, 23.45, result.Float("temperature", 0), 1e-9)
	})

	t.Run("case 2", func(t *testing.T) {
		result := d.Decode([]byte{0x02, 0x64})
		require.NoError(t, result.Err)
		assert.Equal(t, int64(2), result.Int("msg_type", -1))
		assert.Equal(t, int64(100), result.Int("humidity", -1))
	})
}

// TestScenario4DescriptorLoadThenDecode is spec.md §8 scenario 4: a binary
// descriptor is loaded, then used directly to decode a payload - exercising
// the full A-B-C-D pipeline without a hand-built schema.
func TestScenario4DescriptorLoadThenDecode(t *testing.T) {
	descBytes := []byte{
		0x50, 0x53, 0x01, 0x00, 0x03,
		0x12, 0xFE, 0xE7, 0x0C,
		0x01, 0x81, 0xE8, 0x0C,
		0x02, 0x00, 0xF4, 0x0C,
	}

	s, err := descriptor.Load(descBytes)
	require.NoError(t, err)

	result := NewDecoder(s).Decode([]byte{0x09, 0x29, 0x82, 0x0C, 0xE4})
	require.NoError(t, result.Err)

	assert.InDelta(t, 23.45, result.Float("temperature", 0), 1e-9)
	assert.InDelta(t, 65.0, result.Float("humidity", 0), 1e-9)
	assert.Equal(t, int64(3300), result.Int("voltage", -1))
}

// TestScenario5EncodeRoundTrip is spec.md §8 scenario 5: the scenario 1
// schema, encoded from its decoded values, must reproduce the scenario 1
// bytes exactly.
func TestScenario5EncodeRoundTrip(t *testing.T) {
	s, err := schema.New("scenario1").
		Endian(schema.Big).
		AddField("temperature", schema.TypeInt).Size(2).Mult(0.01).End().
		AddField("humidity", schema.TypeUint).Size(1).Mult(0.5).End().
		AddField("battery", schema.TypeUint).Size(2).End().
		AddField("status", schema.TypeUint).Size(1).End().
		Build()
	require.NoError(t, err)

	result := NewEncoder(s).Encode(Input{
		"temperature": FloatValue(23.45),
		"humidity":    FloatValue(65.0),
		"battery":     UintValue(3300),
		"status":      UintValue(0),
	})
	require.NoError(t, result.Err)
	assert.Equal(t, []byte{0x09, 0x29, 0x82, 0x0C, 0xE4, 0x00}, result.Bytes)
}

// TestScenario6ShortBufferUnderrun is spec.md §8 scenario 6: a buffer
// shorter than the single field's declared width must report
// BufferUnderrun and produce no decoded fields.
func TestScenario6ShortBufferUnderrun(t *testing.T) {
	s, err := schema.New("scenario6").
		Endian(schema.Big).
		AddField("val", schema.TypeUint).Size(3).End().
		Build()
	require.NoError(t, err)

	result := NewDecoder(s).Decode([]byte{0x01, 0x02})
	require.Error(t, result.Err)
	assert.Equal(t, errs.BufferUnderrun, errs.CodeOf(result.Err))
	assert.Len(t, result.Fields, 0)
}

// TestRoundTripProperty exercises the universal encode-then-decode
// property of spec.md §9: for any value set a field accepts, encoding
// and decoding it back must reproduce the same values.
func TestRoundTripProperty(t *testing.T) {
	s := buildEnvSensor(t)
	e := NewEncoder(s)
	d := NewDecoder(s)

	cases := []float64{-40.0, 0.0, 12.34, 85.5}
	for _, temp := range cases {
		encoded := e.Encode(Input{
			"temperature": FloatValue(temp),
			"humidity":    FloatValue(50.0),
			"battery_pct": UintValue(99),
		})
		require.NoError(t, encoded.Err)

		decoded := d.Decode(encoded.Bytes)
		require.NoError(t, decoded.Err)
		assert.InDelta(t, temp, decoded.Float("temperature", 0), 0.01)
	}
}

// TestCursorAdvanceEqualsWidth checks spec.md §9's invariant that
// BytesConsumed after a full decode equals the sum of each field's wire
// width, for a schema with no match branching.
func TestCursorAdvanceEqualsWidth(t *testing.T) {
	s := buildEnvSensor(t)
	result := NewDecoder(s).Decode([]byte{0xFF, 0x9C, 0xC8, 0x55})
	require.NoError(t, result.Err)
	assert.Equal(t, 4, result.BytesConsumed)
}

func TestDecodeThenDumpThenLoadPreservesSemantics(t *testing.T) {
	s, err := schema.New("roundtrip").
		Endian(schema.Little).
		AddField("field_0010", schema.TypeUint).Size(1).Mult(0.5).End().
		Build()
	require.NoError(t, err)

	dumped, err := descriptor.Dump(s)
	require.NoError(t, err)

	reloaded, err := descriptor.Load(dumped)
	require.NoError(t, err)

	original := NewDecoder(s).Decode([]byte{0x0A})
	again := NewDecoder(reloaded).Decode([]byte{0x0A})

	require.NoError(t, original.Err)
	require.NoError(t, again.Err)
	assert.Equal(t, original.Fields[0].Value.AsFloat(), again.Fields[0].Value.AsFloat())
}
