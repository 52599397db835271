package emulator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/gtusim/image"
	"github.com/ezrec/gtusim/machine"
)

func build(t *testing.T, src string) *Emulator {
	t.Helper()

	img, err := image.Parse(strings.NewReader(src))
	require.NoError(t, err)

	mem, err := machine.NewMemory(machine.HandlerArithmeticFaultPC + 100)
	require.NoError(t, err)

	emu, err := New(mem, img)
	require.NoError(t, err)

	return emu
}

func TestEmulator_MinimalHalt(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, `
Begin Data Section
0 0
End Data Section
Begin Instruction Section
0 HLT
End Instruction Section
`)

	err := emu.Run(nil)
	require.NoError(t, err)

	assert.Equal(1, emu.Ticks())
	assert.True(emu.CPU.Halted)
}

func TestEmulator_PrintConstant(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, `
Begin Data Section
0 0
100 42
End Data Section
Begin Instruction Section
0 SYSCALL PRN 100
1 HLT
100 HLT
End Instruction Section
`)

	var out bytes.Buffer
	emu.SetOutput(&out)

	err := emu.Run(nil)
	require.NoError(t, err)

	assert.Equal("42\n", out.String())
	assert.True(emu.CPU.Halted)
}

func TestEmulator_ArithmeticAndBranchLoop(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, `
Begin Data Section
0 0
10 3
End Data Section
Begin Instruction Section
0 ADD 10, -1
1 JIF 10, 3
2 SET 0, 0
3 HLT
End Instruction Section
`)

	var steps int
	err := emu.Run(func(*Emulator) { steps++ })
	require.NoError(t, err)

	assert.True(emu.CPU.Halted)
	v, _ := emu.Mem.Read(10)
	assert.Equal(machine.Word(0), v)
	assert.Greater(steps, 0)
}

func TestEmulator_CallRet(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, `
Begin Data Section
0 0
1 250
End Data Section
Begin Instruction Section
0 CALL 5
1 HLT
5 SET 99, 200
6 RET
End Instruction Section
`)

	err := emu.Run(nil)
	require.NoError(t, err)

	v, _ := emu.Mem.Read(200)
	assert.Equal(machine.Word(99), v)
}

func TestEmulator_ProtectionTrapEndsInFatalUnlessHandled(t *testing.T) {
	assert := assert.New(t)

	// The supervisor handler at HandlerMemoryFaultPC is a bare HLT, so
	// the trap is delivered and then the machine halts cleanly in
	// kernel mode rather than looping.
	emu := build(t, `
Begin Data Section
0 0
50 201
End Data Section
Begin Instruction Section
0 USER 50
201 SET 7, 50
200 HLT
End Instruction Section
`)

	err := emu.Run(nil)
	require.NoError(t, err)

	event, _ := emu.Mem.Read(machine.RegEVENT)
	assert.Equal(machine.EventMemoryFaultUser, event)
	assert.True(emu.CPU.Halted)
	assert.False(emu.CPU.UserMode)
}

func TestEmulator_CycleCeiling(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, `
Begin Instruction Section
0 SET 1, 10
1 JIF 10, 5
2 SUBI 10, 10
3 SET 0, 0
End Instruction Section
`)
	emu.CycleCeiling = 50

	err := emu.Run(nil)
	assert.Error(err)
	assert.IsType(ErrCycleCeiling(0), err)
}

func TestDumper_DumpOnEvent_FiresOnModeChangeWithoutEvent(t *testing.T) {
	assert := assert.New(t)

	// OpUSER flips UserMode but never writes RegEVENT, so a Dumper
	// tracking only RegEVENT would miss this transition entirely.
	emu := build(t, `
Begin Data Section
0 0
50 1
End Data Section
Begin Instruction Section
0 USER 50
1 HLT
End Instruction Section
`)

	var out bytes.Buffer
	dumper := NewDumper(DumpOnEvent, &out, nil)

	err := emu.Run(dumper.Observe())
	require.NoError(t, err)

	assert.Contains(out.String(), "user_mode=true")
}

func TestDump_FormatsRegisterWindow(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, `
Begin Instruction Section
0 HLT
End Instruction Section
`)

	line := Dump(emu)
	assert.Contains(line, "PC=")
	assert.Contains(line, "SP=")
	assert.Contains(line, "EVENT=")
	assert.Contains(line, "ICOUNT=")
}
