package machine

import (
	"errors"

	"github.com/ezrec/gtusim/translate"
)

var f = translate.From

// Sentinel errors not tied to a specific address or PC.
var (
	ErrHalted = errors.New(f("cpu halted"))
)

// OutOfRange is Memory's own bounds-check failure. The CPU's protection
// wrapper never lets this escape past Step: it is always translated into
// either AddressingFault (kernel mode) or MemoryFault (user mode).
type OutOfRange struct {
	Addr int
}

func (e OutOfRange) Error() string {
	return f("address %d out of range", e.Addr)
}

// AddressingFault is an out-of-range memory access made in kernel mode.
// Kernel-mode faults are always fatal.
type AddressingFault struct {
	Addr int
}

func (e AddressingFault) Error() string {
	return f("addressing fault at %d", e.Addr)
}

// MemoryFault is a protection violation: a user-mode access into the
// supervisor-private region [21, 999], or a user-mode access that ran off
// the end of memory entirely (including a stack overflow/underflow,
// which is classified as a MemoryFault rather than a distinct event).
type MemoryFault struct {
	Addr int
}

func (e MemoryFault) Error() string {
	return f("memory fault at %d", e.Addr)
}

// UnknownInstructionFault is raised when the program counter does not
// index a valid instruction table slot.
type UnknownInstructionFault struct {
	PC int
}

func (e UnknownInstructionFault) Error() string {
	return f("unknown instruction at pc %d", e.PC)
}

// ArithmeticFault is raised on signed 64-bit overflow in an ADD, ADDI, or
// SUBI instruction. Overflow is detected, not silently wrapped.
type ArithmeticFault struct {
	Op string
}

func (e ArithmeticFault) Error() string {
	return f("arithmetic fault in %v", e.Op)
}

// FatalFault wraps any fault taken while in kernel mode. Kernel faults
// halt the machine with the PC left at the faulting instruction.
type FatalFault struct {
	PC  int
	Err error
}

func (e FatalFault) Error() string {
	return f("fatal fault at pc %d: %v", e.PC, e.Err)
}

func (e FatalFault) Unwrap() error {
	return e.Err
}

// ErrMemorySize is returned when a caller requests a memory smaller than
// MinSize.
type ErrMemorySize int

func (e ErrMemorySize) Error() string {
	return f("memory size %d is below the minimum of %d", int(e), MinSize)
}

