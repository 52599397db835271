package image

import (
	"strings"
	"testing"

	"github.com/ezrec/gtusim/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MinimalHalt(t *testing.T) {
	assert := assert.New(t)

	src := `
Begin Data Section
0 0
End Data Section
Begin Instruction Section
0 HLT
End Instruction Section
`
	img, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Len(img.Data, 1)
	assert.Equal(MemInit{Addr: 0, Value: 0}, img.Data[0])

	ins, ok := img.Table.At(0)
	assert.True(ok)
	assert.Equal(machine.OpHLT, ins.Op)
}

func TestParse_PrintConstant(t *testing.T) {
	assert := assert.New(t)

	src := `
Begin Data Section
0 0
100 42
End Data Section
Begin Instruction Section
0 SYSCALL PRN 100
1 HLT
End Instruction Section
`
	img, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	ins, ok := img.Table.At(0)
	assert.True(ok)
	assert.Equal(machine.OpSyscallPRN, ins.Op)
	assert.Equal(machine.Word(100), ins.Arg1)

	ins, ok = img.Table.At(1)
	assert.True(ok)
	assert.Equal(machine.OpHLT, ins.Op)
}

func TestParse_SparseIndicesFillHoles(t *testing.T) {
	assert := assert.New(t)

	src := `
Begin Instruction Section
0 HLT
3 HLT
End Instruction Section
`
	img, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(4, img.Table.Len())

	ins, ok := img.Table.At(1)
	assert.True(ok)
	assert.True(ins.IsHole())

	ins, ok = img.Table.At(2)
	assert.True(ok)
	assert.True(ins.IsHole())

	assert.Len(img.Warnings, 1)
	assert.Contains(img.Warnings[0].Text, "non-sequential")
}

func TestParse_CommaSeparatedOperands(t *testing.T) {
	assert := assert.New(t)

	src := `
Begin Instruction Section
0 SET 42, 10
1 CPY 10, 11
End Instruction Section
`
	img, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	ins, ok := img.Table.At(0)
	assert.True(ok)
	assert.Equal(machine.OpSET, ins.Op)
	assert.Equal(machine.Word(42), ins.Arg1)
	assert.Equal(machine.Word(10), ins.Arg2)
}

func TestParse_CaseInsensitiveMnemonic(t *testing.T) {
	assert := assert.New(t)

	src := `
Begin Instruction Section
0 hlt
End Instruction Section
`
	img, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	ins, ok := img.Table.At(0)
	assert.True(ok)
	assert.Equal(machine.OpHLT, ins.Op)
}

func TestParse_UnknownMnemonic(t *testing.T) {
	assert := assert.New(t)

	src := `
Begin Instruction Section
0 BOGUS
End Instruction Section
`
	_, err := Parse(strings.NewReader(src))
	assert.Error(err)
}

func TestParse_UnterminatedSection(t *testing.T) {
	assert := assert.New(t)

	_, err := Parse(strings.NewReader("Begin Instruction Section\n0 HLT\n"))
	assert.Error(err)
}

func TestParse_DuplicateSection(t *testing.T) {
	assert := assert.New(t)

	src := `
Begin Data Section
End Data Section
Begin Data Section
End Data Section
`
	_, err := Parse(strings.NewReader(src))
	assert.Error(err)
}

func TestParse_WrongOperandCount(t *testing.T) {
	assert := assert.New(t)

	src := `
Begin Instruction Section
0 SET 1
End Instruction Section
`
	_, err := Parse(strings.NewReader(src))
	assert.Error(err)
}

func TestParse_SyscallSubtype(t *testing.T) {
	assert := assert.New(t)

	src := `
Begin Instruction Section
0 SYSCALL YIELD
1 SYSCALL HLT
End Instruction Section
`
	img, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	ins, ok := img.Table.At(0)
	assert.True(ok)
	assert.Equal(machine.OpSyscallYIELD, ins.Op)

	ins, ok = img.Table.At(1)
	assert.True(ok)
	assert.Equal(machine.OpSyscallHLT, ins.Op)
}

func TestParse_EmptyImage(t *testing.T) {
	assert := assert.New(t)

	img, err := Parse(strings.NewReader("just a comment, no sections\n"))
	require.NoError(t, err)
	assert.Nil(img.Data)
	assert.Equal(0, img.Table.Len())
}
