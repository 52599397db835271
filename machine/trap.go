package machine

import (
	"iter"

	"github.com/ezrec/gtusim/internal"
)

// Event codes written to memory cell RegEVENT on every trap.
const (
	EventNone                    Word = 0
	EventSyscallPRN              Word = 1
	EventSyscallHLT              Word = 2
	EventSyscallYIELD            Word = 3
	EventMemoryFaultUser         Word = 4
	EventUnknownInstructionFault Word = 5
	EventArithmeticFault         Word = 6
)

// Handler PC constants. These are configuration, fixed at build time:
// the supervisor image must place its handlers at these instruction
// indices.
const (
	HandlerSyscallPC            = 100
	HandlerMemoryFaultPC        = 200
	HandlerUnknownInstructionPC = 300
	HandlerArithmeticFaultPC    = 400
)

// single yields exactly one (name, addr) pair. It exists so
// RegisterNames can build its fixed field order out of
// internal.IterSeq2Concat instead of a slice-and-map lookup.
func single(name string, addr int) iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		yield(name, addr)
	}
}

// RegisterNames returns an iterator over the semantic register-window
// labels and their fixed addresses, in display order. It has no effect
// on interpreter semantics; it exists so debug dumpers can print "PC"
// instead of "mem[0]".
func RegisterNames() iter.Seq2[string, int] {
	return internal.IterSeq2Concat(
		single("PC", RegPC),
		single("SP", RegSP),
		single("EVENT", RegEVENT),
		single("ICOUNT", RegICOUNT),
		single("SAVED_PC", RegSAVEDPC),
		single("ARG1", RegARG1),
	)
}
