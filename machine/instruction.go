package machine

import "fmt"

// Opcode identifies an instruction's operation. The zero value, OpHole,
// is never a real mnemonic: it marks an instruction table slot the
// loader never populated, executed as an implicit HLT.
type Opcode int

const (
	OpHole Opcode = iota
	OpSET
	OpCPY
	OpCPYI
	OpCPYI2
	OpADD
	OpADDI
	OpSUBI
	OpJIF
	OpPUSH
	OpPOP
	OpCALL
	OpRET
	OpHLT
	OpUSER
	OpLOADI
	OpSTOREI
	OpSyscallPRN
	OpSyscallHLT
	OpSyscallYIELD
)

var opcodeNames = map[Opcode]string{
	OpHole:         "HOLE",
	OpSET:          "SET",
	OpCPY:          "CPY",
	OpCPYI:         "CPYI",
	OpCPYI2:        "CPYI2",
	OpADD:          "ADD",
	OpADDI:         "ADDI",
	OpSUBI:         "SUBI",
	OpJIF:          "JIF",
	OpPUSH:         "PUSH",
	OpPOP:          "POP",
	OpCALL:         "CALL",
	OpRET:          "RET",
	OpHLT:          "HLT",
	OpUSER:         "USER",
	OpLOADI:        "LOADI",
	OpSTOREI:       "STOREI",
	OpSyscallPRN:   "SYSCALL PRN",
	OpSyscallHLT:   "SYSCALL HLT",
	OpSyscallYIELD: "SYSCALL YIELD",
}

// String returns the mnemonic (or "SYSCALL <subtype>" for the three
// SYSCALL variants) for the opcode.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// mnemonics maps the case-insensitive mnemonic text to its Opcode and
// expected operand count, for use by the image loader.
var mnemonics = map[string]struct {
	Op       Opcode
	Operands int
}{
	"SET":    {OpSET, 2},
	"CPY":    {OpCPY, 2},
	"CPYI":   {OpCPYI, 2},
	"CPYI2":  {OpCPYI2, 2},
	"ADD":    {OpADD, 2},
	"ADDI":   {OpADDI, 2},
	"SUBI":   {OpSUBI, 2},
	"JIF":    {OpJIF, 2},
	"PUSH":   {OpPUSH, 1},
	"POP":    {OpPOP, 1},
	"CALL":   {OpCALL, 1},
	"RET":    {OpRET, 0},
	"HLT":    {OpHLT, 0},
	"USER":   {OpUSER, 1},
	"LOADI":  {OpLOADI, 2},
	"STOREI": {OpSTOREI, 2},
}

// LookupMnemonic returns the Opcode and expected operand count for a
// (case-insensitive) mnemonic. SYSCALL is not handled here: it carries a
// subtype token (PRN|HLT|YIELD) that the caller must resolve first via
// LookupSyscall.
func LookupMnemonic(name string) (op Opcode, operands int, ok bool) {
	m, ok := mnemonics[normalizeUpper(name)]
	if !ok {
		return 0, 0, false
	}
	return m.Op, m.Operands, true
}

var syscallSubtypes = map[string]struct {
	Op       Opcode
	Operands int
}{
	"PRN":   {OpSyscallPRN, 1},
	"HLT":   {OpSyscallHLT, 0},
	"YIELD": {OpSyscallYIELD, 0},
}

// LookupSyscall returns the Opcode and expected operand count for a
// (case-insensitive) SYSCALL subtype token.
func LookupSyscall(subtype string) (op Opcode, operands int, ok bool) {
	s, ok := syscallSubtypes[normalizeUpper(subtype)]
	if !ok {
		return 0, 0, false
	}
	return s.Op, s.Operands, true
}

func normalizeUpper(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// Instruction is a single decoded, immutable instruction table entry.
type Instruction struct {
	Op       Opcode
	Arg1     Word
	Arg2     Word
	Operands int
	Source   string // original source text, for diagnostics
}

// IsHole reports whether this slot was never populated by the loader.
func (ins Instruction) IsHole() bool {
	return ins.Op == OpHole
}

func (ins Instruction) String() string {
	if ins.IsHole() {
		return "<hole>"
	}
	if ins.Source != "" {
		return ins.Source
	}
	switch ins.Operands {
	case 0:
		return ins.Op.String()
	case 1:
		return fmt.Sprintf("%v %d", ins.Op, ins.Arg1)
	default:
		return fmt.Sprintf("%v %d %d", ins.Op, ins.Arg1, ins.Arg2)
	}
}

// Table is the immutable instruction array, indexed by the program
// counter. Never mutated after load.
type Table struct {
	instr []Instruction
}

// NewTable builds a Table from a fully-populated instruction slice
// (holes included). The caller owns constructing the sparse-to-dense
// conversion, typically the image loader.
func NewTable(instr []Instruction) *Table {
	return &Table{instr: append([]Instruction(nil), instr...)}
}

// Len returns the number of instruction slots.
func (t *Table) Len() int {
	return len(t.instr)
}

// At returns the instruction at pc, or ok=false if pc is out of range.
func (t *Table) At(pc int) (Instruction, bool) {
	if pc < 0 || pc >= len(t.instr) {
		return Instruction{}, false
	}
	return t.instr[pc], true
}
