package payloadschema

import (
	"github.com/tinygram/payloadschema/codec"
	"github.com/tinygram/payloadschema/descriptor"
	"github.com/tinygram/payloadschema/errs"
	"github.com/tinygram/payloadschema/schema"
)

// ErrorCode is the stable integer error classification of spec.md §6/§7.
type ErrorCode = errs.Code

const (
	ErrOK             = errs.OK
	ErrParse          = errs.Parse
	ErrBufferUnderrun = errs.BufferUnderrun
	ErrOverflow       = errs.Overflow
	ErrType           = errs.Type
	ErrMatch          = errs.Match
	ErrUnsupported    = errs.Unsupported
	ErrMissingInput   = errs.MissingInput
)

// CodeOf classifies err into its stable ErrorCode.
func CodeOf(err error) ErrorCode {
	return errs.CodeOf(err)
}

// LoadSchema parses a binary schema descriptor into a *schema.Schema.
func LoadSchema(data []byte) (*schema.Schema, error) {
	return descriptor.Load(data)
}

// DumpSchema serializes a schema back into its binary descriptor form.
func DumpSchema(s *schema.Schema) ([]byte, error) {
	return descriptor.Dump(s)
}

// Decode runs payload through s, returning the ordered field list, byte
// count, and error status as a single *codec.DecodeResult.
func Decode(s *schema.Schema, payload []byte) *codec.DecodeResult {
	return codec.NewDecoder(s).Decode(payload)
}

// Encode renders inputs (Go native values: int/int64/uint64/float64/bool/
// string/[]byte) against s, producing the wire payload.
func Encode(s *schema.Schema, inputs map[string]any) *codec.EncodeResult {
	in := make(codec.Input, len(inputs))
	for name, v := range inputs {
		in[name] = toValue(v)
	}
	return codec.NewEncoder(s).Encode(in)
}

func toValue(v any) codec.Value {
	switch x := v.(type) {
	case int:
		return codec.IntValue(int64(x))
	case int64:
		return codec.IntValue(x)
	case uint:
		return codec.UintValue(uint64(x))
	case uint64:
		return codec.UintValue(x)
	case float64:
		return codec.FloatValue(x)
	case float32:
		return codec.FloatValue(float64(x))
	case bool:
		return codec.BoolValue(x)
	case string:
		return codec.StringValue(x)
	case []byte:
		return codec.BytesValue(x)
	default:
		return codec.Value{}
	}
}
