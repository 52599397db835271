package machine

// Word is a signed machine cell. Every memory location, operand, and
// trap-protocol value is a Word.
type Word int64

// Register-window addresses. These are always accessible, in any mode.
const (
	RegPC       = 0 // program counter: index into the instruction table
	RegSP       = 1 // stack pointer: a memory index
	RegEVENT    = 2 // last CPU-to-supervisor event code
	RegICOUNT   = 3 // count of executed instructions
	RegSAVEDPC  = 4 // PC saved by the CPU on trap
	RegARG1     = 5 // auxiliary trap argument
	RegScratch0 = 6 // start of the reserved scratch window (6..20)
)

// Hardcoded memory regions.
const (
	RegisterWindowStart = 0
	RegisterWindowEnd   = 20 // inclusive
	SupervisorStart     = 21
	SupervisorEnd       = 999 // inclusive
	UserStart           = 1000

	// DefaultSize is the memory cell count used when the CLI does not
	// override it with -m/--memory-size.
	DefaultSize = 11000
	// MinSize is the smallest memory size the machine will run with;
	// below this the register window (addresses 0..20) cannot fit.
	MinSize = 21
)

// Memory is a flat, bounds-checked array of Words. Memory is
// region-agnostic: it knows nothing of user/kernel protection, which is
// enforced by the CPU's protection wrapper.
type Memory struct {
	cells []Word
}

// NewMemory allocates a zeroed Memory of the given size. size must be at
// least MinSize.
func NewMemory(size int) (*Memory, error) {
	if size < MinSize {
		return nil, ErrMemorySize(size)
	}
	return &Memory{cells: make([]Word, size)}, nil
}

// Size returns the number of addressable cells.
func (m *Memory) Size() int {
	return len(m.cells)
}

// Read returns the value stored at addr, or OutOfRange if addr is not a
// valid index.
func (m *Memory) Read(addr int) (Word, error) {
	if addr < 0 || addr >= len(m.cells) {
		return 0, OutOfRange{Addr: addr}
	}
	return m.cells[addr], nil
}

// Write stores value at addr, or fails with OutOfRange if addr is not a
// valid index.
func (m *Memory) Write(addr int, value Word) error {
	if addr < 0 || addr >= len(m.cells) {
		return OutOfRange{Addr: addr}
	}
	m.cells[addr] = value
	return nil
}

