package emulator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ezrec/gtusim/machine"
)

// Verbosity selects one of the four debug dump levels from the
// command-line surface.
type Verbosity int

const (
	// DumpOnHalt dumps the register window and CPU flags once, after
	// Run returns; the rest of memory is not dumped.
	DumpOnHalt Verbosity = iota
	// DumpEachStep dumps the register window after every step.
	DumpEachStep
	// DumpEachStepPaced dumps after every step and waits for ENTER.
	DumpEachStepPaced
	// DumpOnEvent dumps only when EVENT changes or UserMode flips (a
	// trap or a mode-change event), leaving ordinary steps silent.
	// OpUSER flips UserMode without ever touching EVENT, so both are
	// tracked independently rather than folding mode into EVENT.
	DumpOnEvent
)

// Dumper prints the register window (and, for -D3, the trap/mode-change
// transition) to w, in the fixed-field style of a hardware register
// dump: one line, one label per cell.
type Dumper struct {
	Level Verbosity
	W     io.Writer

	in         *bufio.Reader // ENTER-pacing source for DumpEachStepPaced
	interative bool          // whether in is a real terminal, per term.IsTerminal
	lastEvent  machine.Word
	lastMode   bool // emu.CPU.UserMode as of the last DumpOnEvent dump
}

// NewDumper builds a Dumper writing to w. pace, if non-nil, is the
// input stream ENTER is read from for DumpEachStepPaced; it is only
// consulted if it is backed by a terminal, per golang.org/x/term.
func NewDumper(level Verbosity, w io.Writer, pace *os.File) *Dumper {
	d := &Dumper{Level: level, W: w}
	if pace != nil {
		d.in = bufio.NewReader(pace)
		d.interative = term.IsTerminal(int(pace.Fd()))
	}
	return d
}

// Dump renders the register window and CPU flags as a single line, in
// the teacher's fixed-field dumper style. The register list itself
// comes from machine.RegisterNames rather than being hardcoded here, so
// the dumper and the CPU never disagree about which cells make up the
// register window.
func Dump(emu *Emulator) string {
	var b strings.Builder
	for name, addr := range machine.RegisterNames() {
		v, _ := emu.Mem.Read(addr)
		fmt.Fprintf(&b, "%s=%d ", name, v)
	}
	fmt.Fprintf(&b, "user_mode=%v halted=%v", emu.CPU.UserMode, emu.CPU.Halted)

	return b.String()
}

// Observe returns an Emulator.Run observer implementing this Dumper's
// verbosity level.
func (d *Dumper) Observe() func(emu *Emulator) {
	switch d.Level {
	case DumpEachStep:
		return func(emu *Emulator) {
			fmt.Fprintln(d.W, Dump(emu))
		}
	case DumpEachStepPaced:
		return func(emu *Emulator) {
			fmt.Fprintln(d.W, Dump(emu))
			if d.interative {
				fmt.Fprint(d.W, "-- press ENTER to continue --")
				_, _ = d.in.ReadString('\n')
			}
		}
	case DumpOnEvent:
		return func(emu *Emulator) {
			event, _ := emu.Mem.Read(machine.RegEVENT)
			mode := emu.CPU.UserMode
			if event != d.lastEvent || mode != d.lastMode {
				fmt.Fprintln(d.W, Dump(emu))
				d.lastEvent = event
				d.lastMode = mode
			}
		}
	default: // DumpOnHalt
		return nil
	}
}

// DumpFinal writes the final dump for DumpOnHalt mode. Callers using
// any other Verbosity should rely on Observe instead.
func (d *Dumper) DumpFinal(emu *Emulator) {
	fmt.Fprintln(d.W, Dump(emu))
}
