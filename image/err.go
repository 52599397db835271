package image

import (
	"github.com/ezrec/gtusim/translate"
)

var f = translate.From

// ErrParseLine wraps a parse error with the line number and text where
// it occurred.
type ErrParseLine struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrParseLine) Error() string {
	return f("line %d: %q: %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrParseLine) Unwrap() error {
	return err.Err
}

// ErrDuplicateSection indicates a section marker was seen twice.
type ErrDuplicateSection string

func (err ErrDuplicateSection) Error() string {
	return f("duplicate section: %s", string(err))
}

// ErrUnexpectedMarker indicates an End marker appeared with no matching
// Begin marker open.
type ErrUnexpectedMarker string

func (err ErrUnexpectedMarker) Error() string {
	return f("unexpected marker with no open section: %s", string(err))
}

// ErrUnterminatedSection indicates a Begin marker was never closed.
type ErrUnterminatedSection string

func (err ErrUnterminatedSection) Error() string {
	return f("section never closed: %s", string(err))
}

// ErrParseFields indicates a line did not match the expected field
// shape for its section.
type ErrParseFields string

func (err ErrParseFields) Error() string {
	return f("malformed line: %q", string(err))
}

// ErrParseNumber indicates a field that should have parsed as a signed
// integer did not.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("not a number: %q", string(err))
}

// ErrNegativeIndex indicates an instruction-section index was negative.
type ErrNegativeIndex int

func (err ErrNegativeIndex) Error() string {
	return f("negative instruction index: %d", int(err))
}

// ErrUnknownMnemonic indicates a mnemonic not in the instruction set.
type ErrUnknownMnemonic string

func (err ErrUnknownMnemonic) Error() string {
	return f("unknown mnemonic: %q", string(err))
}

// ErrSyscallSubtypeMissing indicates a SYSCALL line had no subtype
// token.
type ErrSyscallSubtypeMissing string

func (err ErrSyscallSubtypeMissing) Error() string {
	return f("SYSCALL missing subtype (PRN|HLT|YIELD)")
}

// ErrUnknownSyscallSubtype indicates a SYSCALL subtype token that is
// not PRN, HLT, or YIELD.
type ErrUnknownSyscallSubtype string

func (err ErrUnknownSyscallSubtype) Error() string {
	return f("unknown SYSCALL subtype: %q", string(err))
}

// ErrOperandCount indicates a mnemonic was given the wrong number of
// operands.
type ErrOperandCount struct {
	Want int
	Got  int
}

func (err ErrOperandCount) Error() string {
	return f("expected %d operand(s), got %d", err.Want, err.Got)
}
