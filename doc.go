// Package payloadschema is the one-stop entry point over this module's
// schema/descriptor/codec subpackages, mirroring the teacher's root
// schemaipc package sitting atop its schema/encoder split. Most callers
// only need LoadSchema, Decode, and Encode; the subpackages remain
// directly importable for anything more specific (building a schema by
// hand, dumping a descriptor, inspecting a DecodeResult in detail).
package payloadschema
