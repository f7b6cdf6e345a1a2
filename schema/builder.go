package schema

import "github.com/pkg/errors"

// ErrTooManyLookupEntries is returned when a lookup table would exceed
// MaxLookupEntries.
var ErrTooManyLookupEntries = errors.New("schema: too many lookup entries")

// ErrTooManyCases is returned when a match field would exceed
// MaxCasesPerMatch.
var ErrTooManyCases = errors.New("schema: too many match cases")

// ErrTooManyListValues is returned when a list-kind Case would exceed
// MaxMatchListLen.
var ErrTooManyListValues = errors.New("schema: too many list values")

// Builder constructs a Schema programmatically via chained calls, per
// spec.md §6 (schema_new / schema_set_endian / schema_add_field). Errors
// are sticky: once set, further calls are no-ops and Build returns it.
type Builder struct {
	s   Schema
	err error

	// bitCursor tracks the next free bit offset within the byte a run of
	// sequential bitfields (AddTypeField's `uN:w` syntax) is packing into.
	// It resets to 0 whenever a field closes out its byte or a non-
	// bitfield field is added.
	bitCursor int
}

// New starts building a schema named name.
func New(name string) *Builder {
	return &Builder{s: Schema{Name: name}}
}

// Endian sets the schema's default byte order.
func (b *Builder) Endian(e Endianness) *Builder {
	b.s.Endian = e
	return b
}

// Version sets the schema's version tag.
func (b *Builder) Version(v uint8) *Builder {
	b.s.Version = v
	return b
}

// AddField appends a new field of the given type and name, returning a
// FieldBuilder for chaining its modifiers, bit layout, endianness
// override, variable binding, and lookup table.
func (b *Builder) AddField(name string, t FieldType) *FieldBuilder {
	if b.err != nil {
		return &FieldBuilder{b: b, idx: -1}
	}

	if len(b.s.Fields) >= MaxFields {
		b.err = errors.Wrapf(ErrTooManyFields, "adding field %q", name)
		return &FieldBuilder{b: b, idx: -1}
	}

	if err := validateName(name); err != nil {
		b.err = err
		return &FieldBuilder{b: b, idx: -1}
	}

	b.bitCursor = 0
	b.s.Fields = append(b.s.Fields, Field{Name: name, Type: t})
	return &FieldBuilder{b: b, idx: len(b.s.Fields) - 1}
}

// AddTypeField appends a field described by a type-string expression, per
// the grammar ParseTypeString implements from spec.md §4.B. It is the
// entry point that actually resolves `uN:w` sequential bitfield syntax:
// SequentialBitStart never reaches the stored Field. A run of consecutive
// AddTypeField calls using sequential syntax packs into the same byte,
// each one picking up at the bit offset the previous one left off at; the
// cursor resets to 0 once a field fills out the remaining bits of the
// byte, or when any other Builder.AddField/AddTypeField call intervenes.
func (b *Builder) AddTypeField(name, typeExpr string) *FieldBuilder {
	if b.err != nil {
		return &FieldBuilder{b: b, idx: -1}
	}

	pt, err := ParseTypeString(typeExpr)
	if err != nil {
		b.err = errors.Wrapf(err, "field %q: type %q", name, typeExpr)
		return &FieldBuilder{b: b, idx: -1}
	}

	if !pt.IsBitfield {
		fb := b.AddField(name, pt.Type)
		if pt.Size > 0 {
			fb.Size(pt.Size)
		}
		return fb
	}

	start := pt.BitStart
	if start == SequentialBitStart {
		start = b.bitCursor
	}
	if start+pt.BitWidth > 8 {
		b.err = errors.Wrapf(ErrMultiByteBitfield, "field %q: start=%d width=%d", name, start, pt.BitWidth)
		return &FieldBuilder{b: b, idx: -1}
	}

	// AddField would reset bitCursor to 0; save the start this call
	// resolved to and restore the post-field cursor afterward.
	fb := b.AddField(name, TypeBitfield)
	consume := start+pt.BitWidth >= 8
	fb.Bits(start, pt.BitWidth, consume)
	if consume {
		b.bitCursor = 0
	} else {
		b.bitCursor = start + pt.BitWidth
	}
	return fb
}

// Build finalizes the schema. It returns any error recorded by a prior
// builder call.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	out := b.s
	out.Fields = append([]Field(nil), b.s.Fields...)
	return &out, nil
}

// FieldBuilder chains configuration onto the field most recently added by
// Builder.AddField. After a builder error, its setters become no-ops so
// call chains don't need to check errors at every step.
type FieldBuilder struct {
	b   *Builder
	idx int
}

func (fb *FieldBuilder) field() *Field {
	if fb.b == nil || fb.idx < 0 || fb.idx >= len(fb.b.s.Fields) {
		return &Field{}
	}
	return &fb.b.s.Fields[fb.idx]
}

// Size sets the byte width for byte-addressable types.
func (fb *FieldBuilder) Size(n int) *FieldBuilder {
	fb.field().Size = n
	return fb
}

// Bits configures a bitfield or bool field: bit offset, bit width, and
// whether the cursor advances after reading.
func (fb *FieldBuilder) Bits(start, width int, consume bool) *FieldBuilder {
	f := fb.field()
	f.BitStart = start
	f.BitWidth = width
	f.Consume = consume
	return fb
}

// EndianOverride overrides the schema's default byte order for this field.
func (fb *FieldBuilder) EndianOverride(e Endianness) *FieldBuilder {
	f := fb.field()
	f.EndianOverride = true
	f.Endian = e
	return fb
}

// Mult sets the multiplier modifier.
func (fb *FieldBuilder) Mult(x float64) *FieldBuilder {
	f := fb.field()
	f.HasMult = true
	f.Mult = x
	return fb
}

// Div sets the divisor modifier.
func (fb *FieldBuilder) Div(x float64) *FieldBuilder {
	f := fb.field()
	f.HasDiv = true
	f.Div = x
	return fb
}

// Add sets the addend modifier.
func (fb *FieldBuilder) Add(x float64) *FieldBuilder {
	f := fb.field()
	f.HasAdd = true
	f.Add = x
	return fb
}

// Var binds the field's pre-modifier raw integer to the named variable
// so a later match field can branch on it.
func (fb *FieldBuilder) Var(name string) *FieldBuilder {
	fb.field().Var = name
	return fb
}

// Lookup attaches a raw-integer-to-string table (enum or generic lookup),
// capped at MaxLookupEntries. keys controls iteration/serialization order
// since Go maps don't preserve one.
func (fb *FieldBuilder) Lookup(keys []int64, table map[int64]string) *FieldBuilder {
	if fb.b != nil && fb.b.err == nil && len(table) > MaxLookupEntries {
		fb.b.err = errors.Wrapf(ErrTooManyLookupEntries, "field %q", fb.field().Name)
		return fb
	}
	f := fb.field()
	f.Lookup = table
	f.LookupOrder = append([]int64(nil), keys...)
	return fb
}

// Match configures a TypeMatch field: the variable name to switch on and
// its ordered case list, capped at MaxCasesPerMatch cases (each list-kind
// case capped at MaxMatchListLen values).
func (fb *FieldBuilder) Match(varName string, cases ...Case) *FieldBuilder {
	if fb.b != nil && fb.b.err == nil && len(cases) > MaxCasesPerMatch {
		fb.b.err = errors.Wrapf(ErrTooManyCases, "field %q", fb.field().Name)
		return fb
	}
	for _, c := range cases {
		if fb.b != nil && fb.b.err == nil && c.Kind == CaseList && len(c.List) > MaxMatchListLen {
			fb.b.err = errors.Wrapf(ErrTooManyListValues, "field %q", fb.field().Name)
			return fb
		}
	}
	f := fb.field()
	f.MatchVar = varName
	f.Cases = append([]Case(nil), cases...)
	return fb
}

// End returns to the parent Builder to continue chaining more fields.
func (fb *FieldBuilder) End() *Builder {
	return fb.b
}

// SingleCase builds a Case matching one exact value.
func SingleCase(value int64, fieldStart, fieldCount int) Case {
	return Case{Kind: CaseSingle, Value: value, FieldStart: fieldStart, FieldCount: fieldCount}
}

// ListCase builds a Case matching any of up to MaxMatchListLen values.
func ListCase(values []int64, fieldStart, fieldCount int) Case {
	return Case{Kind: CaseList, List: append([]int64(nil), values...), FieldStart: fieldStart, FieldCount: fieldCount}
}

// RangeCase builds a Case matching the inclusive range [min, max]. Per
// spec.md §4.D, min == max never matches (use SingleCase instead).
func RangeCase(min, max int64, fieldStart, fieldCount int) Case {
	return Case{Kind: CaseRange, Min: min, Max: max, FieldStart: fieldStart, FieldCount: fieldCount}
}

// DefaultCase builds the catch-all Case.
func DefaultCase(fieldStart, fieldCount int) Case {
	return Case{Kind: CaseDefault, FieldStart: fieldStart, FieldCount: fieldCount}
}
