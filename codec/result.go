package codec

import "github.com/tinygram/payloadschema/schema"

// DecodedField is one entry of a DecodeResult's output list: a name, its
// original schema type tag, and the decoded Value.
type DecodedField struct {
	Name  string
	Type  schema.FieldType
	Value Value
}

// DecodeResult is the ordered output of Decoder.Decode, per spec.md §3
// "Decode result": an ordered field list, a byte count, and an error
// status.
type DecodeResult struct {
	Fields        []DecodedField
	BytesConsumed int
	Err           error
}

// Field returns the i'th decoded field, or false if i is out of range.
func (r *DecodeResult) Field(i int) (DecodedField, bool) {
	if i < 0 || i >= len(r.Fields) {
		return DecodedField{}, false
	}
	return r.Fields[i], true
}

// ByName returns the first decoded field named name, or false.
func (r *DecodeResult) ByName(name string) (DecodedField, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return DecodedField{}, false
}

// Int returns the named field's value as an int64, or def if absent.
func (r *DecodeResult) Int(name string, def int64) int64 {
	if f, ok := r.ByName(name); ok {
		return f.Value.AsInt()
	}
	return def
}

// Float returns the named field's value as a float64, or def if absent.
func (r *DecodeResult) Float(name string, def float64) float64 {
	if f, ok := r.ByName(name); ok {
		return f.Value.AsFloat()
	}
	return def
}

// Str returns the named field's value as a string, or def if absent.
func (r *DecodeResult) Str(name string, def string) string {
	if f, ok := r.ByName(name); ok {
		return f.Value.AsString()
	}
	return def
}

// Bool returns the named field's value as a bool, or def if absent.
func (r *DecodeResult) Bool(name string, def bool) bool {
	if f, ok := r.ByName(name); ok {
		return f.Value.AsBool()
	}
	return def
}

// EncodeResult is the output of Encoder.Encode: the encoded bytes (valid
// up to the point of any error) and an error status.
type EncodeResult struct {
	Bytes []byte
	Err   error
}
