package descriptor

import "fmt"

// wellKnownNames resolves the binary descriptor's 16-bit numeric field
// identifiers (spec.md §4.C) to short canonical names. It is the
// stateless descendant of the teacher's schema.MessageDescriptorRegistry
// ID→signature table (see SPEC_FULL.md §4.G): where the teacher maps a
// registry-assigned uint32 message ID to a SchemaMessage at connection
// time, this table maps a fixed, well-known sensor/telemetry ID to a
// field name at parse time, with no registration step required.
var wellKnownNames = map[uint16]string{
	3301: "illuminance",
	3303: "temperature",
	3304: "humidity",
	3315: "pressure",
	3316: "voltage",
	3317: "current",
	3328: "power",
	3330: "distance",
}

var wellKnownIDs = func() map[string]uint16 {
	out := make(map[string]uint16, len(wellKnownNames))
	for id, name := range wellKnownNames {
		out[name] = id
	}
	return out
}()

// FieldNameForID resolves id to its canonical short name, or to
// "field_XXXX" (hex) if id isn't in the well-known table.
func FieldNameForID(id uint16) string {
	if name, ok := wellKnownNames[id]; ok {
		return name
	}
	return fmt.Sprintf("field_%04X", id)
}

// IDForFieldName is the inverse of FieldNameForID, used by Dump to
// re-derive a field's 16-bit identifier from its name. It returns false
// if name is neither a well-known canonical name nor a "field_XXXX" hex
// placeholder.
func IDForFieldName(name string) (uint16, bool) {
	if id, ok := wellKnownIDs[name]; ok {
		return id, true
	}

	if len(name) == 10 && name[:6] == "field_" {
		var id uint16
		if _, err := fmt.Sscanf(name[6:], "%04X", &id); err == nil {
			return id, true
		}
	}

	return 0, false
}
