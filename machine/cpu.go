package machine

import "log"

// CPU is the fetch-execute-commit interpreter. Only two bits of state
// live outside memory: Halted and UserMode. Everything else (PC, SP,
// EVENT, ICOUNT, SAVED_PC, ARG1) is a memory cell in the register
// window and is read and written through the same protected path used
// for ordinary operands.
type CPU struct {
	Verbose bool // if set, logs each executed instruction

	Mem   *Memory
	Table *Table

	Halted   bool
	UserMode bool

	// Print is invoked synchronously by SYSCALL PRN, before the trap is
	// delivered. It must not reentrantly call back into the CPU.
	Print func(Word) error

	pcWritten bool // set by protectedWrite whenever address 0 (PC) is targeted this step
}

// NewCPU builds a CPU over mem and table, starting in kernel mode, not
// halted. print may be nil, in which case SYSCALL PRN is a no-op write.
func NewCPU(mem *Memory, table *Table, print func(Word) error) *CPU {
	return &CPU{
		Mem:   mem,
		Table: table,
		Print: print,
	}
}

// protectedRead is the single entry point mediating all instruction-
// initiated memory reads.
func (c *CPU) protectedRead(addr int) (Word, error) {
	if c.UserMode && addr >= SupervisorStart && addr <= SupervisorEnd {
		return 0, MemoryFault{Addr: addr}
	}
	v, err := c.Mem.Read(addr)
	if err != nil {
		if c.UserMode {
			return 0, MemoryFault{Addr: addr}
		}
		return 0, AddressingFault{Addr: addr}
	}
	return v, nil
}

// protectedWrite is the single entry point mediating all instruction-
// initiated memory writes.
func (c *CPU) protectedWrite(addr int, value Word) error {
	if c.UserMode && addr >= SupervisorStart && addr <= SupervisorEnd {
		return MemoryFault{Addr: addr}
	}
	if err := c.Mem.Write(addr, value); err != nil {
		if c.UserMode {
			return MemoryFault{Addr: addr}
		}
		return AddressingFault{Addr: addr}
	}
	if addr == RegPC {
		c.pcWritten = true
	}
	return nil
}

// Register-window accessors. These addresses are always inside the
// unrestricted window (0..20), so they can only fail if Memory itself is
// smaller than MinSize, which NewMemory refuses to construct.

func (c *CPU) pc() Word {
	v, _ := c.protectedRead(RegPC)
	return v
}

func (c *CPU) setPC(v Word) {
	_ = c.protectedWrite(RegPC, v)
}

func (c *CPU) sp() Word {
	v, _ := c.protectedRead(RegSP)
	return v
}

func (c *CPU) setSP(v Word) {
	_ = c.protectedWrite(RegSP, v)
}

func (c *CPU) setEvent(v Word) {
	_ = c.protectedWrite(RegEVENT, v)
}

func (c *CPU) setSavedPC(v Word) {
	_ = c.protectedWrite(RegSAVEDPC, v)
}

func (c *CPU) setArg1(v Word) {
	_ = c.protectedWrite(RegARG1, v)
}

func (c *CPU) icount() Word {
	v, _ := c.protectedRead(RegICOUNT)
	return v
}

func (c *CPU) bumpICount() {
	_ = c.protectedWrite(RegICOUNT, c.icount()+1)
}

// Step runs a single fetch-execute-commit cycle. It returns ErrHalted if
// the CPU is already halted, and a FatalFault if a fault was taken while
// in kernel mode (the caller should treat this as terminal).
func (c *CPU) Step() error {
	if c.Halted {
		return ErrHalted
	}

	pc := int(c.pc())

	ins, ok := c.Table.At(pc)
	if !ok {
		return c.trapOrFatal(pc, UnknownInstructionFault{PC: pc}, EventUnknownInstructionFault, Word(pc), HandlerUnknownInstructionPC)
	}

	if ins.IsHole() {
		if c.Verbose {
			log.Printf("machine: %04d: <hole>, implicit HLT", pc)
		}
		c.Halted = true
		c.bumpICount()
		return nil
	}

	if c.Verbose {
		log.Printf("machine: %04d: %v", pc, ins)
	}

	c.pcWritten = false
	err := c.execute(ins, pc)
	if err != nil {
		return c.classify(pc, err)
	}

	c.bumpICount()

	if !c.Halted && !c.pcWritten {
		c.setPC(Word(pc + 1))
	}

	return nil
}

// classify routes a fault raised during execute to the correct
// destination: a trap if in user mode, or a fatal halt if in kernel
// mode. err is expected to be one of MemoryFault, AddressingFault,
// UnknownInstructionFault, or ArithmeticFault.
func (c *CPU) classify(pc int, err error) error {
	switch fault := err.(type) {
	case MemoryFault:
		return c.trapOrFatal(pc, fault, EventMemoryFaultUser, Word(fault.Addr), HandlerMemoryFaultPC)
	case ArithmeticFault:
		return c.trapOrFatal(pc, fault, EventArithmeticFault, Word(pc), HandlerArithmeticFaultPC)
	case UnknownInstructionFault:
		return c.trapOrFatal(pc, fault, EventUnknownInstructionFault, Word(pc), HandlerUnknownInstructionPC)
	case AddressingFault:
		// Addressing faults only occur in kernel mode: the protection
		// wrapper turns any user-mode OutOfRange into a MemoryFault
		// before it ever reaches here.
		c.bumpICount()
		return c.fatal(pc, fault)
	default:
		c.bumpICount()
		return c.fatal(pc, err)
	}
}

// trapOrFatal delivers a trap if currently in user mode, or halts fatally
// if in kernel mode. Either branch bumps ICOUNT exactly once, since this
// is called in place of Step's own post-execute bumpICount on the error
// path.
func (c *CPU) trapOrFatal(pc int, err error, event Word, arg1 Word, handlerPC int) error {
	if !c.UserMode {
		c.bumpICount()
		return c.fatal(pc, err)
	}

	c.UserMode = false
	c.setSavedPC(Word(pc))
	c.setEvent(event)
	c.setArg1(arg1)
	c.pcWritten = false
	c.setPC(Word(handlerPC))

	c.bumpICount()

	return nil
}

// fatal halts the machine, preserving PC at the faulting instruction.
func (c *CPU) fatal(pc int, err error) error {
	c.Halted = true
	return FatalFault{PC: pc, Err: err}
}

// syscallTrap delivers the SYSCALL trap protocol. Unlike faults, a
// syscall trap fires regardless of the current mode: a syscall executed
// while already in kernel mode still traps to the dispatcher.
func (c *CPU) syscallTrap(pc int, event Word, arg1 Word, haveArg1 bool) {
	c.UserMode = false
	c.setSavedPC(Word(pc + 1))
	c.setEvent(event)
	if haveArg1 {
		c.setArg1(arg1)
	}
	c.pcWritten = false
	c.setPC(Word(HandlerSyscallPC))
}

// execute performs the semantics of ins, which was fetched at pc. PC
// updates go through protectedWrite, so Step's "did the instruction
// write PC itself" check sees them uniformly whether the write came from
// a jump/call/ret/user instruction or from an ordinary memory write that
// happened to target address 0.
func (c *CPU) execute(ins Instruction, pc int) error {
	switch ins.Op {
	case OpSET:
		// mem[A] <- B
		return c.protectedWrite(int(ins.Arg2), ins.Arg1)

	case OpCPY:
		// mem[A2] <- mem[A1]
		v, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		return c.protectedWrite(int(ins.Arg2), v)

	case OpCPYI:
		// mem[A2] <- mem[mem[A1]]
		ptr, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		v, err := c.protectedRead(int(ptr))
		if err != nil {
			return err
		}
		return c.protectedWrite(int(ins.Arg2), v)

	case OpCPYI2:
		// mem[mem[A2]] <- mem[mem[A1]]
		srcPtr, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		v, err := c.protectedRead(int(srcPtr))
		if err != nil {
			return err
		}
		dstPtr, err := c.protectedRead(int(ins.Arg2))
		if err != nil {
			return err
		}
		return c.protectedWrite(int(dstPtr), v)

	case OpADD:
		// mem[A] <- mem[A] + B
		a, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		sum, overflow := addOverflow(a, ins.Arg2)
		if overflow {
			return ArithmeticFault{Op: "ADD"}
		}
		return c.protectedWrite(int(ins.Arg1), sum)

	case OpADDI:
		// mem[A1] <- mem[A1] + mem[A2]
		a, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		b, err := c.protectedRead(int(ins.Arg2))
		if err != nil {
			return err
		}
		sum, overflow := addOverflow(a, b)
		if overflow {
			return ArithmeticFault{Op: "ADDI"}
		}
		return c.protectedWrite(int(ins.Arg1), sum)

	case OpSUBI:
		// mem[A2] <- mem[A1] - mem[A2]
		a, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		b, err := c.protectedRead(int(ins.Arg2))
		if err != nil {
			return err
		}
		diff, overflow := subOverflow(a, b)
		if overflow {
			return ArithmeticFault{Op: "SUBI"}
		}
		return c.protectedWrite(int(ins.Arg2), diff)

	case OpJIF:
		// if mem[A] <= 0 then PC <- C
		v, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		if v <= 0 {
			return c.protectedWrite(RegPC, ins.Arg2)
		}
		return nil

	case OpPUSH:
		// SP <- SP - 1; mem[SP] <- mem[A]
		v, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		newSP := c.sp() - 1
		c.setSP(newSP)
		return c.protectedWrite(int(newSP), v)

	case OpPOP:
		// mem[A] <- mem[SP]; SP <- SP + 1
		sp := c.sp()
		v, err := c.protectedRead(int(sp))
		if err != nil {
			return err
		}
		if err := c.protectedWrite(int(ins.Arg1), v); err != nil {
			return err
		}
		c.setSP(sp + 1)
		return nil

	case OpCALL:
		// SP <- SP - 1; mem[SP] <- PC + 1; PC <- C
		newSP := c.sp() - 1
		c.setSP(newSP)
		if err := c.protectedWrite(int(newSP), Word(pc+1)); err != nil {
			return err
		}
		return c.protectedWrite(RegPC, ins.Arg1)

	case OpRET:
		// PC <- mem[SP]; SP <- SP + 1
		sp := c.sp()
		target, err := c.protectedRead(int(sp))
		if err != nil {
			return err
		}
		c.setSP(sp + 1)
		return c.protectedWrite(RegPC, target)

	case OpHLT:
		c.Halted = true
		return nil

	case OpUSER:
		// PC <- mem[A]; user_mode <- true
		target, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		if err := c.protectedWrite(RegPC, target); err != nil {
			return err
		}
		c.UserMode = true
		return nil

	case OpLOADI:
		// mem[Dst] <- mem[mem[Ptr]]
		ptr, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		v, err := c.protectedRead(int(ptr))
		if err != nil {
			return err
		}
		return c.protectedWrite(int(ins.Arg2), v)

	case OpSTOREI:
		// mem[mem[Ptr]] <- mem[Src]
		v, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		ptr, err := c.protectedRead(int(ins.Arg2))
		if err != nil {
			return err
		}
		return c.protectedWrite(int(ptr), v)

	case OpSyscallPRN:
		v, err := c.protectedRead(int(ins.Arg1))
		if err != nil {
			return err
		}
		if c.Print != nil {
			if err := c.Print(v); err != nil {
				return err
			}
		}
		c.syscallTrap(pc, EventSyscallPRN, ins.Arg1, true)
		return nil

	case OpSyscallHLT:
		c.syscallTrap(pc, EventSyscallHLT, 0, false)
		return nil

	case OpSyscallYIELD:
		c.syscallTrap(pc, EventSyscallYIELD, 0, false)
		return nil

	default:
		return UnknownInstructionFault{PC: pc}
	}
}

// addOverflow reports the signed 64-bit sum of a and b, and whether it
// overflowed.
func addOverflow(a, b Word) (Word, bool) {
	sum := a + b
	return sum, ((a ^ sum) & (b ^ sum)) < 0
}

// subOverflow reports the signed 64-bit difference a-b, and whether it
// overflowed.
func subOverflow(a, b Word) (Word, bool) {
	diff := a - b
	return diff, ((a ^ b) & (a ^ diff)) < 0
}
