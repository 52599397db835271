// Package emulator drives a machine.CPU through a run loop, wiring the
// print callback and enforcing a maximum-cycle ceiling so a runaway
// program cannot spin the host process forever.
package emulator

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/ezrec/gtusim/image"
	"github.com/ezrec/gtusim/machine"
)

// DefaultCycleCeiling bounds Run when the caller does not supply one.
const DefaultCycleCeiling = 10_000_000

// Emulator owns a CPU, its backing memory, and the instruction table it
// executes. It is the seam between a parsed image and the CPU
// interpreter: it applies the data section, wires the print sink, and
// runs the step loop.
type Emulator struct {
	Verbose bool // if set, the CPU logs every executed instruction

	CPU   *machine.CPU
	Mem   *machine.Memory
	Table *machine.Table

	// CycleCeiling stops Run with ErrCycleCeiling instead of looping
	// forever. Zero means DefaultCycleCeiling.
	CycleCeiling int

	out *bufio.Writer
}

// New builds an Emulator over mem cells and img's instruction table,
// applying img's data-section pairs and defaulting the print sink to
// buffered stdout.
func New(mem *machine.Memory, img *image.Image) (*Emulator, error) {
	for _, init := range img.Data {
		if err := mem.Write(init.Addr, init.Value); err != nil {
			return nil, fmt.Errorf("applying data section: %w", err)
		}
	}

	emu := &Emulator{
		Mem:   mem,
		Table: img.Table,
		out:   bufio.NewWriter(os.Stdout),
	}
	emu.CPU = machine.NewCPU(mem, img.Table, emu.print)

	return emu, nil
}

// SetOutput redirects PRN syscall output away from stdout.
func (emu *Emulator) SetOutput(w io.Writer) {
	emu.out = bufio.NewWriter(w)
}

func (emu *Emulator) print(v machine.Word) error {
	if _, err := fmt.Fprintf(emu.out, "%d\n", v); err != nil {
		return err
	}
	return emu.out.Flush()
}

// Ticks returns the total steps executed since reset, read back from
// the memory-mapped ICOUNT cell.
func (emu *Emulator) Ticks() int {
	v, _ := emu.Mem.Read(machine.RegICOUNT)
	return int(v)
}

// PC returns the current program counter, read back from the
// memory-mapped PC cell.
func (emu *Emulator) PC() int {
	v, _ := emu.Mem.Read(machine.RegPC)
	return int(v)
}

// Tick performs a single step, propagating the CPU's verbosity flag.
func (emu *Emulator) Tick() (halted bool, err error) {
	emu.CPU.Verbose = emu.Verbose

	if err := emu.CPU.Step(); err != nil {
		if err == machine.ErrHalted {
			return true, nil
		}
		return true, err
	}

	return emu.CPU.Halted, nil
}

// Run steps the emulator to completion, invoking observe (if non-nil)
// after every step, and returns ErrCycleCeiling if the cycle ceiling is
// reached before the machine halts.
func (emu *Emulator) Run(observe func(emu *Emulator)) error {
	ceiling := emu.CycleCeiling
	if ceiling <= 0 {
		ceiling = DefaultCycleCeiling
	}

	for n := 0; n < ceiling; n++ {
		halted, err := emu.Tick()
		if observe != nil {
			observe(emu)
		}
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}

	return ErrCycleCeiling(ceiling)
}
