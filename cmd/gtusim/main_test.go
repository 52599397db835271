package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prog.img")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	return path
}

func TestRun_MinimalHaltExitsZero(t *testing.T) {
	assert := assert.New(t)

	path := writeImage(t, `
Begin Instruction Section
0 HLT
End Instruction Section
`)

	assert.Equal(0, run([]string{path}))
}

func TestRun_CycleCeilingExhaustionExitsZero(t *testing.T) {
	assert := assert.New(t)

	// Never halts: SET 0,0 keeps rewriting PC to 0 forever, so the
	// cycle ceiling is guaranteed to trip first.
	path := writeImage(t, `
Begin Instruction Section
0 SET 1, 10
1 JIF 10, 5
2 SUBI 10, 10
3 SET 0, 0
End Instruction Section
`)

	assert.Equal(0, run([]string{"-cycle-ceiling", "50", path}))
}

func TestRun_ParseErrorExitsOne(t *testing.T) {
	assert := assert.New(t)

	path := writeImage(t, `
Begin Instruction Section
0 BOGUS
End Instruction Section
`)

	assert.Equal(1, run([]string{path}))
}

func TestRun_MissingArgExitsOne(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(1, run(nil))
}

func TestRun_GluedDebugFlagIsAccepted(t *testing.T) {
	assert := assert.New(t)

	path := writeImage(t, `
Begin Instruction Section
0 HLT
End Instruction Section
`)

	assert.Equal(0, run([]string{"-D2", path}))
}
