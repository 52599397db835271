// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"

	"github.com/ezrec/gtusim/emulator"
	"github.com/ezrec/gtusim/image"
	"github.com/ezrec/gtusim/machine"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// gluedDebugFlagRe matches the primary -D<n> debug-level syntax (-D0
// through -D3), which the stdlib flag package cannot parse on its own:
// it only accepts "-D 0" or "-D=0". splitGluedDebugFlag rewrites any
// such argument into the two-token "-D", "<n>" form flag.Parse expects,
// before Parse ever sees it.
var gluedDebugFlagRe = regexp.MustCompile(`^-D(\d+)$`)

func splitGluedDebugFlag(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if m := gluedDebugFlagRe.FindStringSubmatch(a); m != nil {
			out = append(out, "-D", m[1])
			continue
		}
		out = append(out, a)
	}
	return out
}

// run implements the CLI over args (excluding the program name), so
// tests can drive it without touching the real os.Args.
func run(args []string) int {
	var debugLevel int
	var memSize int
	var verbose bool
	var cycleCeiling int

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.IntVar(&debugLevel, "D", 0, "debug verbosity: 0=dump on halt, 1=dump each step, 2=dump each step and wait for ENTER, 3=dump on EVENT transitions")
	fs.IntVar(&memSize, "m", machine.DefaultSize, "memory cell count")
	fs.IntVar(&memSize, "memory-size", machine.DefaultSize, "memory cell count")
	fs.BoolVar(&verbose, "v", false, "verbose CPU instruction trace")
	fs.IntVar(&cycleCeiling, "cycle-ceiling", 0, "maximum steps before aborting a non-halting program (0 = emulator default)")

	if err := fs.Parse(splitGluedDebugFlag(args)); err != nil {
		return 1
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <image>\n", os.Args[0])
		fs.PrintDefaults()
		return 1
	}

	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		log.Printf("gtusim: %v: %v", path, err)
		return 1
	}
	defer f.Close()

	img, err := image.Parse(f)
	if err != nil {
		log.Printf("gtusim: %v: %v", path, err)
		return 1
	}

	mem, err := machine.NewMemory(memSize)
	if err != nil {
		log.Printf("gtusim: %v", err)
		return 1
	}

	emu, err := emulator.New(mem, img)
	if err != nil {
		log.Printf("gtusim: %v", err)
		return 1
	}
	emu.Verbose = verbose
	emu.CycleCeiling = cycleCeiling

	dumper := emulator.NewDumper(emulator.Verbosity(debugLevel), os.Stderr, os.Stdin)

	runErr := emu.Run(dumper.Observe())
	if dumper.Level == emulator.DumpOnHalt {
		dumper.DumpFinal(emu)
	}

	var ceiling emulator.ErrCycleCeiling
	if errors.As(runErr, &ceiling) {
		log.Printf("gtusim: %v", runErr)
		return 0
	}

	if runErr != nil {
		log.Printf("gtusim: %v", runErr)
		return 1
	}

	return 0
}
