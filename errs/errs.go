// Package errs defines the stable error kinds and their integer codes
// shared by the descriptor codec and the decode/encode engine, per
// spec.md §6 "Error codes (stable integers)" and §7.
package errs

import "github.com/pkg/errors"

// Code is one of the eight stable integer error codes of spec.md §6.
type Code int

const (
	OK              Code = 0
	Parse           Code = -1
	BufferUnderrun  Code = -2
	Overflow        Code = -3
	Type            Code = -4
	Match           Code = -5
	Unsupported     Code = -6
	MissingInput    Code = -7
)

// Sentinel errors, one per non-OK Code. Wrap these with
// github.com/pkg/errors so errors.Is keeps working through a stack trace.
var (
	ErrParse          = errors.New("schema: parse error")
	ErrBufferUnderrun = errors.New("schema: buffer underrun")
	ErrOverflow       = errors.New("schema: overflow")
	ErrType           = errors.New("schema: unsupported type")
	ErrMatch          = errors.New("schema: match error")
	ErrUnsupported    = errors.New("schema: unsupported operation")
	ErrMissingInput   = errors.New("schema: missing input field")
)

// CodeOf maps err to its stable integer code by walking its cause chain.
// A nil err reports OK; a non-nil err that matches no sentinel reports
// Overflow, the code that also covers internal errors.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ErrParse):
		return Parse
	case errors.Is(err, ErrBufferUnderrun):
		return BufferUnderrun
	case errors.Is(err, ErrOverflow):
		return Overflow
	case errors.Is(err, ErrType):
		return Type
	case errors.Is(err, ErrMatch):
		return Match
	case errors.Is(err, ErrUnsupported):
		return Unsupported
	case errors.Is(err, ErrMissingInput):
		return MissingInput
	default:
		return Overflow
	}
}
